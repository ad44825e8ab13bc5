package model

import "time"

// ClanRole is a member's role within the clan.
type ClanRole = string

const (
	ClanRoleLeader  ClanRole = "leader"
	ClanRoleOfficer ClanRole = "officer"
	ClanRoleMember  ClanRole = "member"
)

// ClanType controls who may join.
type ClanType = string

const (
	ClanTypeOpen       ClanType = "open"
	ClanTypeInviteOnly ClanType = "invite_only"
	ClanTypeClosed     ClanType = "closed"
)

// Clan is a player clan. Rating is a ladder score seeded at 1000;
// Experience accumulates from member contributions.
type Clan struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Tag         string    `gorm:"uniqueIndex;size:10;not null" json:"tag"`
	Description string    `gorm:"type:text" json:"description"`
	ClanType    string    `gorm:"size:20;default:'open';not null" json:"clan_type"`
	MaxMembers  int       `gorm:"default:50;not null" json:"max_members"`
	Experience  int       `gorm:"default:0;not null" json:"experience"`
	Rating      int       `gorm:"default:1000;not null" json:"rating"`
	LeaderID    int64     `gorm:"not null" json:"leader_id"`
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Level derives the clan level from accumulated experience.
func (c *Clan) Level() int {
	level := c.Experience/10000 + 1
	if level < 1 {
		level = 1
	}
	if level > 100 {
		level = 100
	}
	return level
}

// ClanMember links a player to a clan with a role.
type ClanMember struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID       int64     `gorm:"index:idx_clan_member;not null" json:"clan_id"`
	PlayerID     int64     `gorm:"index:idx_member_clan;not null" json:"player_id"`
	Role         string    `gorm:"size:20;default:'member';not null" json:"role"`
	Contribution int       `gorm:"default:0;not null" json:"contribution"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
