// Package quest implements quest acceptance, baseline progress tracking
// and the periodic refresh of daily, weekly and monthly quests.
package quest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mcladder/bedboard/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrQuestNotFound   = errors.New("quest not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrAlreadyAccepted = errors.New("quest already accepted")
	ErrNotRepeatable   = errors.New("quest already completed and is not repeatable")
)

// Service owns all quest state transitions.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Accept starts a quest for a player. The player's current value of the
// tracked counter is captured as the baseline, so only play after this
// moment counts toward the target. Accepting an already-active quest is
// an error; re-accepting a completed repeatable quest restarts it with a
// fresh baseline.
func (s *Service) Accept(ctx context.Context, playerID, questID int64) (*model.PlayerQuest, error) {
	var pq *model.PlayerQuest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quest model.Quest
		if err := tx.Where("id = ? AND is_active = ?", questID, true).First(&quest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestNotFound
			}
			return err
		}

		var player model.Player
		if err := tx.First(&player, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		var existing model.PlayerQuest
		err := tx.Where("player_id = ? AND quest_id = ?", playerID, questID).First(&existing).Error
		switch {
		case err == nil:
			if existing.IsAccepted && !existing.IsCompleted {
				return ErrAlreadyAccepted
			}
			if existing.IsCompleted && !quest.IsRepeatable {
				return ErrNotRepeatable
			}
			pq = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			pq = &model.PlayerQuest{PlayerID: playerID, QuestID: questID}
		default:
			return err
		}

		now := time.Now()
		pq.BaselineValue = player.StatValue(quest.Type)
		pq.CurrentProgress = 0
		pq.IsAccepted = true
		pq.IsCompleted = false
		pq.AcceptedAt = &now
		pq.StartedAt = &now
		pq.CompletedAt = nil
		return tx.Save(pq).Error
	})
	if err != nil {
		return nil, err
	}
	return pq, nil
}

// UpdateProgress recomputes progress for every active quest of a player
// and completes those whose target is reached. Progress is the tracked
// counter minus the acceptance baseline, floored at zero. Completion and
// its rewards commit in the same transaction, and a completed quest is
// never completed twice. Returns the quests completed by this call.
func (s *Service) UpdateProgress(ctx context.Context, playerID int64) ([]model.Quest, error) {
	var completed []model.Quest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player model.Player
		if err := tx.First(&player, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		var actives []model.PlayerQuest
		if err := tx.Where("player_id = ? AND is_accepted = ? AND is_completed = ?",
			playerID, true, false).Find(&actives).Error; err != nil {
			return err
		}
		if len(actives) == 0 {
			return nil
		}

		questIDs := make([]int64, 0, len(actives))
		for _, pq := range actives {
			questIDs = append(questIDs, pq.QuestID)
		}
		var quests []model.Quest
		if err := tx.Where("id IN ?", questIDs).Find(&quests).Error; err != nil {
			return err
		}
		questByID := make(map[int64]model.Quest, len(quests))
		for _, q := range quests {
			questByID[q.ID] = q
		}

		playerDirty := false
		now := time.Now()
		for i := range actives {
			pq := &actives[i]
			quest, ok := questByID[pq.QuestID]
			if !ok {
				continue
			}

			progress := player.StatValue(quest.Type) - pq.BaselineValue
			if progress < 0 {
				progress = 0
			}
			pq.CurrentProgress = progress

			if progress >= quest.TargetValue {
				pq.IsCompleted = true
				pq.CompletedAt = &now
				player.Experience += quest.RewardXP
				player.Coins += quest.RewardCoins
				player.Reputation += quest.RewardReputation
				if quest.RewardRole != nil && *quest.RewardRole != "" {
					player.Role = *quest.RewardRole
				}
				playerDirty = true
				completed = append(completed, quest)
			}

			if err := tx.Save(pq).Error; err != nil {
				return err
			}
		}

		if playerDirty {
			if err := tx.Save(&player).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		s.logger.Info("quests completed",
			zap.Int64("player_id", playerID), zap.Int("count", len(completed)))
	}
	return completed, nil
}

// ProgressPercentage maps raw progress to 0..100 for display. A zero
// target counts as done.
func ProgressPercentage(progress, target int) int {
	if target <= 0 {
		return 100
	}
	pct := int(math.Round(100 * float64(progress) / float64(target)))
	if pct > 100 {
		return 100
	}
	return pct
}

// RefreshTimedQuests starts a new period for every daily, weekly or
// monthly quest whose current period has lapsed, resetting all player
// progress on it. The check is idempotent within a period, so it can be
// triggered from both the scheduler and request handlers.
func (s *Service) RefreshTimedQuests(ctx context.Context, now time.Time) error {
	var quests []model.Quest
	err := s.db.WithContext(ctx).
		Where("category IN ? AND is_active = ?",
			[]string{model.QuestCategoryDaily, model.QuestCategoryWeekly, model.QuestCategoryMonthly}, true).
		Find(&quests).Error
	if err != nil {
		return err
	}

	for i := range quests {
		if err := s.refreshOne(ctx, &quests[i], now); err != nil {
			s.logger.Error("quest refresh failed",
				zap.Int64("quest_id", quests[i].ID), zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *Service) refreshOne(ctx context.Context, quest *model.Quest, now time.Time) error {
	var reset, initialize bool
	switch quest.Category {
	case model.QuestCategoryDaily:
		// A daily quest with no recorded period is treated as lapsed.
		reset = quest.LastRefresh == nil || dateOf(*quest.LastRefresh).Before(dateOf(now))
	case model.QuestCategoryWeekly:
		if quest.LastRefresh == nil {
			initialize = true
		} else {
			reset = quest.LastRefresh.Before(weekStart(now))
		}
	case model.QuestCategoryMonthly:
		if quest.LastRefresh == nil {
			initialize = true
		} else {
			last := *quest.LastRefresh
			reset = last.Year() != now.Year() || last.Month() != now.Month()
		}
	default:
		return nil
	}

	if !reset && !initialize {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reset {
			err := tx.Model(&model.PlayerQuest{}).
				Where("quest_id = ?", quest.ID).
				Updates(map[string]interface{}{
					"is_completed":     false,
					"is_accepted":      false,
					"current_progress": 0,
					"baseline_value":   0,
				}).Error
			if err != nil {
				return err
			}
			s.logger.Info("quest period reset",
				zap.Int64("quest_id", quest.ID), zap.String("category", quest.Category))
		}
		quest.LastRefresh = &now
		return tx.Model(&model.Quest{}).Where("id = ?", quest.ID).
			Update("last_refresh", now).Error
	})
}

// dateOf truncates a time to its calendar day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns midnight of the Monday of t's week.
func weekStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return dateOf(t).AddDate(0, 0, -daysSinceMonday)
}
