// Package achievement evaluates unlock conditions and grants
// achievements exactly once per player.
package achievement

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mcladder/bedboard/game/progression"
	"github.com/mcladder/bedboard/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPlayerNotFound = errors.New("player not found")

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CheckAndGrant evaluates every achievement the player hasn't earned yet
// and grants the ones whose conditions are now met. Grant and rewards
// commit together; an achievement is never granted twice. Returns the
// newly earned achievements.
func (s *Service) CheckAndGrant(ctx context.Context, playerID int64) ([]model.Achievement, error) {
	var earned []model.Achievement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player model.Player
		if err := tx.First(&player, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		var haveIDs []int64
		if err := tx.Model(&model.PlayerAchievement{}).
			Where("player_id = ?", playerID).
			Pluck("achievement_id", &haveIDs).Error; err != nil {
			return err
		}

		q := tx.Model(&model.Achievement{})
		if len(haveIDs) > 0 {
			q = q.Where("id NOT IN ?", haveIDs)
		}
		var candidates []model.Achievement
		if err := q.Find(&candidates).Error; err != nil {
			return err
		}

		playerDirty := false
		for _, a := range candidates {
			met, err := conditionsMet(&player, a.UnlockCondition)
			if err != nil {
				s.logger.Warn("bad unlock condition",
					zap.Int64("achievement_id", a.ID), zap.Error(err))
				continue
			}
			if !met {
				continue
			}

			pa := &model.PlayerAchievement{PlayerID: playerID, AchievementID: a.ID}
			if err := tx.Create(pa).Error; err != nil {
				return err
			}
			player.Experience += a.RewardXP
			player.Coins += a.RewardCoins
			player.Reputation += a.RewardReputation
			playerDirty = true
			earned = append(earned, a)
		}

		if playerDirty {
			return tx.Save(&player).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return earned, nil
}

// conditionsMet checks that every key in the JSON condition object is at
// or above its required value. An empty object never unlocks.
func conditionsMet(p *model.Player, raw []byte) (bool, error) {
	var conditions map[string]float64
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return false, err
	}
	if len(conditions) == 0 {
		return false, nil
	}
	for key, want := range conditions {
		if statFor(p, key) < want {
			return false, nil
		}
	}
	return true, nil
}

func statFor(p *model.Player, key string) float64 {
	switch key {
	case "kd_ratio":
		return progression.KDRatio(p.Kills, p.Deaths)
	case "win_rate":
		return progression.WinRate(p.Wins, p.GamesPlayed)
	case "level":
		return float64(progression.Level(p.Experience))
	default:
		return float64(p.StatValue(key))
	}
}
