package model

import "time"

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus = string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament is a scheduled competition. The entry fee is paid in coins
// when joining and accumulates into the prize pool.
type Tournament struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string     `gorm:"size:200;not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	TournamentType  string     `gorm:"size:50;default:'singles';not null" json:"tournament_type"` // singles | teams | clans
	StartDate       time.Time  `gorm:"not null" json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	EntryFee        int        `gorm:"default:0;not null" json:"entry_fee"`
	PrizePool       int        `gorm:"default:0;not null" json:"prize_pool"`
	MaxParticipants int        `gorm:"default:100;not null" json:"max_participants"`
	Status          string     `gorm:"size:20;default:'upcoming';not null" json:"status"`
	OrganizerID     *int64     `json:"organizer_id"`
	IsActive        bool       `gorm:"default:true;not null" json:"is_active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TournamentParticipant records one player's entry.
type TournamentParticipant struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID int64     `gorm:"index:idx_tournament_player;not null" json:"tournament_id"`
	PlayerID     int64     `gorm:"index:idx_tournament_player;not null" json:"player_id"`
	ClanID       *int64    `json:"clan_id"` // set for clan tournaments
	Placement    *int      `json:"placement"`
	PrizeWon     int       `gorm:"default:0;not null" json:"prize_won"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
