package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/game/quest"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestHandler exposes quest listing, acceptance and progress sync.
type QuestHandler struct {
	db     *gorm.DB
	svc    *quest.Service
	logger *zap.Logger
}

func NewQuestHandler(db *gorm.DB, svc *quest.Service, logger *zap.Logger) *QuestHandler {
	return &QuestHandler{db: db, svc: svc, logger: logger}
}

func questView(q *model.Quest, pq *model.PlayerQuest) gin.H {
	view := gin.H{
		"id":                q.ID,
		"title":             q.Title,
		"description":       q.Description,
		"type":              q.Type,
		"target_value":      q.TargetValue,
		"reward_xp":         q.RewardXP,
		"reward_coins":      q.RewardCoins,
		"reward_reputation": q.RewardReputation,
		"difficulty":        q.Difficulty,
		"category":          q.Category,
		"is_repeatable":     q.IsRepeatable,
		"expires_at":        q.ExpiresAt,
	}
	if pq != nil {
		view["is_accepted"] = pq.IsAccepted
		view["is_completed"] = pq.IsCompleted
		view["current_progress"] = pq.CurrentProgress
		view["progress_percentage"] = quest.ProgressPercentage(pq.CurrentProgress, q.TargetValue)
	}
	return view
}

// List handles GET /api/quests. Listing lazily triggers the timed-quest
// refresh so the view is correct even between scheduler ticks. With
// ?player_id= each quest carries that player's progress.
func (h *QuestHandler) List(c *gin.Context) {
	if err := h.svc.RefreshTimedQuests(c.Request.Context(), time.Now()); err != nil {
		h.logger.Error("quest refresh on listing failed", zap.Error(err))
	}

	now := time.Now()
	var quests []model.Quest
	err := h.db.
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("category, id").
		Find(&quests).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	progressByQuest := map[int64]*model.PlayerQuest{}
	if raw := c.Query("player_id"); raw != "" {
		playerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		var pqs []model.PlayerQuest
		if err := h.db.Where("player_id = ?", playerID).Find(&pqs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		for i := range pqs {
			progressByQuest[pqs[i].QuestID] = &pqs[i]
		}
	}

	views := make([]gin.H, 0, len(quests))
	for i := range quests {
		views = append(views, questView(&quests[i], progressByQuest[quests[i].ID]))
	}
	c.JSON(http.StatusOK, gin.H{"quests": views})
}

// Accept handles POST /api/quests/:id/accept for the authenticated
// account's claimed player.
func (h *QuestHandler) Accept(c *gin.Context) {
	questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest id"})
		return
	}

	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	pq, err := h.svc.Accept(c.Request.Context(), player.ID, questID)
	switch {
	case err == nil:
		var q model.Quest
		if err := h.db.First(&q, questID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, questView(&q, pq))
	case errors.Is(err, quest.ErrQuestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
	case errors.Is(err, quest.ErrAlreadyAccepted):
		c.JSON(http.StatusConflict, gin.H{"error": "quest already accepted"})
	case errors.Is(err, quest.ErrNotRepeatable):
		c.JSON(http.StatusConflict, gin.H{"error": "quest is not repeatable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Progress handles POST /api/quests/progress: it re-reads the player's
// counters, updates all active quests and pays out any completions.
func (h *QuestHandler) Progress(c *gin.Context) {
	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	completed, err := h.svc.UpdateProgress(c.Request.Context(), player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	completedViews := make([]gin.H, 0, len(completed))
	for i := range completed {
		completedViews = append(completedViews, questView(&completed[i], nil))
	}
	c.JSON(http.StatusOK, gin.H{"completed": completedViews})
}
