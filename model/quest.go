package model

import "time"

// QuestCategory controls whether and when a quest's progress auto-resets.
type QuestCategory = string

const (
	QuestCategoryPermanent QuestCategory = "permanent"
	QuestCategoryDaily     QuestCategory = "daily"
	QuestCategoryWeekly    QuestCategory = "weekly"
	QuestCategoryMonthly   QuestCategory = "monthly"
	QuestCategoryThematic  QuestCategory = "thematic"
	QuestCategoryMythic    QuestCategory = "mythic"
)

// Quest is a quest definition. Type names the player counter the quest
// tracks (e.g. "kills", "beds_broken"); progress is measured from the
// value of that counter at acceptance time.
type Quest struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Type        string `gorm:"size:50;not null" json:"type"`
	TargetValue int    `gorm:"not null" json:"target_value"`

	RewardXP         int     `gorm:"default:0" json:"reward_xp"`
	RewardCoins      int     `gorm:"default:0" json:"reward_coins"`
	RewardReputation int     `gorm:"default:0" json:"reward_reputation"`
	RewardTitle      *string `gorm:"size:100" json:"reward_title"`
	RewardRole       *string `gorm:"size:100" json:"reward_role"`

	Difficulty   string     `gorm:"size:20;default:'medium'" json:"difficulty"`
	Category     string     `gorm:"size:20;default:'permanent';not null" json:"category"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	IsRepeatable bool       `gorm:"default:true" json:"is_repeatable"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// LastRefresh marks the start of the current period for daily/weekly/
	// monthly quests. Nil means the quest has never been through a refresh.
	LastRefresh *time.Time `json:"last_refresh"`
}

// PlayerQuest tracks one player's progress on one quest. CurrentProgress
// is always recomputed as the tracked counter minus BaselineValue; it is
// stored only so listings don't need the player row.
type PlayerQuest struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID        int64      `gorm:"index:idx_player_quest;not null" json:"player_id"`
	QuestID         int64      `gorm:"index:idx_player_quest;not null" json:"quest_id"`
	CurrentProgress int        `gorm:"default:0" json:"current_progress"`
	BaselineValue   int        `gorm:"default:0" json:"baseline_value"`
	IsCompleted     bool       `gorm:"default:false" json:"is_completed"`
	IsAccepted      bool       `gorm:"default:false" json:"is_accepted"`
	AcceptedAt      *time.Time `json:"accepted_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}
