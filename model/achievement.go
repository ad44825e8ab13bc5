package model

import (
	"time"

	"gorm.io/datatypes"
)

// Achievement is a one-time accomplishment. UnlockCondition is a JSON
// object mapping condition keys to minimum values, e.g.
// {"kills": 500, "kd_ratio": 2.0}. Besides raw counter names, the keys
// "kd_ratio", "win_rate" and "total_resources" address derived stats.
type Achievement struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Rarity           string         `gorm:"size:20;default:'common'" json:"rarity"`
	UnlockCondition  datatypes.JSON `gorm:"not null" json:"unlock_condition"`
	RewardXP         int            `gorm:"default:0" json:"reward_xp"`
	RewardCoins      int            `gorm:"default:0" json:"reward_coins"`
	RewardReputation int            `gorm:"default:0" json:"reward_reputation"`
	RewardTitle      *string        `gorm:"size:100" json:"reward_title"`
	IsHidden         bool           `gorm:"default:false" json:"is_hidden"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// PlayerAchievement records a granted achievement.
type PlayerAchievement struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID      int64     `gorm:"index:idx_player_achievement;not null" json:"player_id"`
	AchievementID int64     `gorm:"index:idx_player_achievement;not null" json:"achievement_id"`
	EarnedAt      time.Time `gorm:"autoCreateTime" json:"earned_at"`
}
