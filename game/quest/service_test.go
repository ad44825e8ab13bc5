package quest

import (
	"context"
	"testing"
	"time"

	"github.com/mcladder/bedboard/model"
	"github.com/mcladder/bedboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newQuestSetup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func createPlayer(t *testing.T, db *gorm.DB, nickname string, kills int) *model.Player {
	t.Helper()
	p := &model.Player{Nickname: nickname, Kills: kills}
	require.NoError(t, db.Create(p).Error)
	return p
}

func createQuest(t *testing.T, db *gorm.DB, questType string, target, rewardXP int, category string) *model.Quest {
	t.Helper()
	q := &model.Quest{
		Title: "test quest", Type: questType, TargetValue: target,
		RewardXP: rewardXP, Category: category, IsActive: true, IsRepeatable: true,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

func TestAccept_CapturesBaseline(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 50)
	quest := createQuest(t, db, "kills", 10, 1000, model.QuestCategoryPermanent)

	pq, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, pq.BaselineValue)
	assert.Equal(t, 0, pq.CurrentProgress)
	assert.True(t, pq.IsAccepted)
	assert.False(t, pq.IsCompleted)
	assert.NotNil(t, pq.AcceptedAt)

	// Pre-acceptance kills must not count.
	completed, err := svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)
	assert.Empty(t, completed)

	var stored model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&stored).Error)
	assert.Equal(t, 0, stored.CurrentProgress)
}

func TestAccept_Twice(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Alex", 0)
	quest := createQuest(t, db, "kills", 10, 1000, model.QuestCategoryPermanent)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, player.ID, quest.ID)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestAccept_UnknownQuest(t *testing.T) {
	svc, db := newQuestSetup(t)
	player := createPlayer(t, db, "Steve", 0)

	_, err := svc.Accept(context.Background(), player.ID, 9999)
	assert.ErrorIs(t, err, ErrQuestNotFound)
}

func TestUpdateProgress_CompletesAndRewardsOnce(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 50)
	quest := createQuest(t, db, "kills", 10, 1000, model.QuestCategoryPermanent)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	// 60 - 50 baseline = 10 = target.
	require.NoError(t, db.Model(&model.Player{}).Where("id = ?", player.ID).Update("kills", 60).Error)

	completed, err := svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, quest.ID, completed[0].ID)

	var after model.Player
	require.NoError(t, db.First(&after, player.ID).Error)
	assert.Equal(t, 1000, after.Experience)

	// A second pass over the same stats must not pay out again.
	completed, err = svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)
	assert.Empty(t, completed)

	require.NoError(t, db.First(&after, player.ID).Error)
	assert.Equal(t, 1000, after.Experience)

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.True(t, pq.IsCompleted)
	assert.NotNil(t, pq.CompletedAt)
}

func TestUpdateProgress_NeverNegative(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 50)
	quest := createQuest(t, db, "kills", 10, 1000, model.QuestCategoryPermanent)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	// Admin correction drops the counter below the baseline.
	require.NoError(t, db.Model(&model.Player{}).Where("id = ?", player.ID).Update("kills", 30).Error)

	_, err = svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.Equal(t, 0, pq.CurrentProgress)
	assert.False(t, pq.IsCompleted)
}

func TestAccept_RepeatableRestartsWithFreshBaseline(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 5, 100, model.QuestCategoryPermanent)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Player{}).Where("id = ?", player.ID).Update("kills", 5).Error)
	_, err = svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)

	pq, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, pq.BaselineValue)
	assert.False(t, pq.IsCompleted)
	assert.Equal(t, 0, pq.CurrentProgress)
}

func TestAccept_NonRepeatableCompleted(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 1, 100, model.QuestCategoryPermanent)
	require.NoError(t, db.Model(&model.Quest{}).Where("id = ?", quest.ID).Update("is_repeatable", false).Error)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Player{}).Where("id = ?", player.ID).Update("kills", 1).Error)
	_, err = svc.UpdateProgress(ctx, player.ID)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, player.ID, quest.ID)
	assert.ErrorIs(t, err, ErrNotRepeatable)
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 100, ProgressPercentage(5, 0))
	assert.Equal(t, 0, ProgressPercentage(0, 10))
	assert.Equal(t, 50, ProgressPercentage(5, 10))
	assert.Equal(t, 33, ProgressPercentage(1, 3))
	assert.Equal(t, 100, ProgressPercentage(25, 10))
}

func TestRefresh_DailyResetsAcrossMidnight(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 20)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryDaily)

	yesterday := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	require.NoError(t, db.Model(&model.Quest{}).Where("id = ?", quest.ID).Update("last_refresh", yesterday).Error)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	today := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)
	require.NoError(t, svc.RefreshTimedQuests(ctx, today))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.False(t, pq.IsAccepted)
	assert.False(t, pq.IsCompleted)
	assert.Equal(t, 0, pq.CurrentProgress)
	assert.Equal(t, 0, pq.BaselineValue)

	var after model.Quest
	require.NoError(t, db.First(&after, quest.ID).Error)
	require.NotNil(t, after.LastRefresh)
	assert.Equal(t, 2026, after.LastRefresh.Year())
}

func TestRefresh_DailyIdempotentWithinDay(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryDaily)

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RefreshTimedQuests(ctx, now))

	// Accept after the morning refresh; a later same-day refresh must not
	// touch the active quest.
	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	later := now.Add(8 * time.Hour)
	require.NoError(t, svc.RefreshTimedQuests(ctx, later))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.True(t, pq.IsAccepted)
}

func TestRefresh_WeeklyInitializesWithoutReset(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryWeekly)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	// First refresh ever: the period anchor is recorded but nobody's
	// progress is wiped.
	require.NoError(t, svc.RefreshTimedQuests(ctx, time.Now()))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.True(t, pq.IsAccepted)

	var after model.Quest
	require.NoError(t, db.First(&after, quest.ID).Error)
	assert.NotNil(t, after.LastRefresh)
}

func TestRefresh_WeeklyResetsOnMonday(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryWeekly)

	// Sunday of the previous week.
	sunday := time.Date(2026, 8, 23, 18, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&model.Quest{}).Where("id = ?", quest.ID).Update("last_refresh", sunday).Error)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	monday := time.Date(2026, 8, 24, 0, 30, 0, 0, time.UTC)
	require.NoError(t, svc.RefreshTimedQuests(ctx, monday))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.False(t, pq.IsAccepted)

	// Within the same week nothing further happens.
	_, err = svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RefreshTimedQuests(ctx, monday.Add(72*time.Hour)))
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.True(t, pq.IsAccepted)
}

func TestRefresh_MonthlyResetsOnNewMonth(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryMonthly)

	july := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&model.Quest{}).Where("id = ?", quest.ID).Update("last_refresh", july).Error)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	august := time.Date(2026, 8, 1, 0, 5, 0, 0, time.UTC)
	require.NoError(t, svc.RefreshTimedQuests(ctx, august))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.False(t, pq.IsAccepted)
}

func TestRefresh_PermanentNeverTouched(t *testing.T) {
	svc, db := newQuestSetup(t)
	ctx := context.Background()

	player := createPlayer(t, db, "Steve", 0)
	quest := createQuest(t, db, "kills", 10, 100, model.QuestCategoryPermanent)

	_, err := svc.Accept(ctx, player.ID, quest.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RefreshTimedQuests(ctx, time.Now().AddDate(0, 2, 0)))

	var pq model.PlayerQuest
	require.NoError(t, db.Where("player_id = ? AND quest_id = ?", player.ID, quest.ID).First(&pq).Error)
	assert.True(t, pq.IsAccepted)
}
