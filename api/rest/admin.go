package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/audit"
	"github.com/mcladder/bedboard/game/achievement"
	"github.com/mcladder/bedboard/game/progression"
	"github.com/mcladder/bedboard/game/quest"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"github.com/mcladder/bedboard/scheduler"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func conditionJSON(condition map[string]float64) (datatypes.JSON, error) {
	raw, err := json.Marshal(condition)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// AdminAuth guards admin routes with a shared key. A deployment without
// a configured key has its whole admin surface disabled.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API disabled"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// AdminHandler implements stat corrections, content management and
// operational endpoints.
type AdminHandler struct {
	db           *gorm.DB
	audit        *audit.Service
	leaderboard  *LeaderboardHandler
	sched        *scheduler.Scheduler
	quests       *quest.Service
	achievements *achievement.Service
	logger       *zap.Logger
}

func NewAdminHandler(db *gorm.DB, auditSvc *audit.Service, lb *LeaderboardHandler,
	sched *scheduler.Scheduler, quests *quest.Service, achievements *achievement.Service,
	logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		db: db, audit: auditSvc, leaderboard: lb,
		sched: sched, quests: quests, achievements: achievements, logger: logger,
	}
}

type createPlayerRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=100"`
	ServerIP string `json:"server_ip" binding:"max=100"`
}

// CreatePlayer handles POST /api/admin/players.
func (h *AdminHandler) CreatePlayer(c *gin.Context) {
	var req createPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player := &model.Player{Nickname: req.Nickname, ServerIP: req.ServerIP}
	if err := h.db.Create(player).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "nickname already exists"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusCreated, playerView(player))
}

// statsUpdateRequest uses pointers so absent fields are left untouched.
type statsUpdateRequest struct {
	Kills            *int `json:"kills"`
	FinalKills       *int `json:"final_kills"`
	Deaths           *int `json:"deaths"`
	FinalDeaths      *int `json:"final_deaths"`
	BedsBroken       *int `json:"beds_broken"`
	GamesPlayed      *int `json:"games_played"`
	Wins             *int `json:"wins"`
	IronCollected    *int `json:"iron_collected"`
	GoldCollected    *int `json:"gold_collected"`
	DiamondCollected *int `json:"diamond_collected"`
	EmeraldCollected *int `json:"emerald_collected"`
	ItemsPurchased   *int `json:"items_purchased"`
	Coins            *int `json:"coins"`
	Reputation       *int `json:"reputation"`
}

func (r *statsUpdateRequest) apply(p *model.Player) {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Kills, r.Kills)
	set(&p.FinalKills, r.FinalKills)
	set(&p.Deaths, r.Deaths)
	set(&p.FinalDeaths, r.FinalDeaths)
	set(&p.BedsBroken, r.BedsBroken)
	set(&p.GamesPlayed, r.GamesPlayed)
	set(&p.Wins, r.Wins)
	set(&p.IronCollected, r.IronCollected)
	set(&p.GoldCollected, r.GoldCollected)
	set(&p.DiamondCollected, r.DiamondCollected)
	set(&p.EmeraldCollected, r.EmeraldCollected)
	set(&p.ItemsPurchased, r.ItemsPurchased)
	set(&p.Coins, r.Coins)
	set(&p.Reputation, r.Reputation)
}

// UpdateStats handles PUT /api/admin/players/:id/stats. Negative inputs
// are clamped to zero, experience is re-derived (it can only rise), and
// quest progress and achievements are re-evaluated against the new
// counters. The correction is written to the audit log.
func (h *AdminHandler) UpdateStats(c *gin.Context) {
	start := time.Now()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	var req statsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var player model.Player
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&player, id).Error; err != nil {
			return err
		}
		req.apply(&player)
		player.ClampStats()
		player.Experience = progression.ExperienceFloor(player.Experience, playerStats(&player))
		return tx.Save(&player).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	// Corrections can complete quests or unlock achievements.
	if _, err := h.quests.UpdateProgress(c.Request.Context(), player.ID); err != nil {
		h.logger.Error("quest re-evaluation after correction failed",
			zap.Int64("player_id", player.ID), zap.Error(err))
	}
	if _, err := h.achievements.CheckAndGrant(c.Request.Context(), player.ID); err != nil {
		h.logger.Error("achievement re-evaluation after correction failed",
			zap.Int64("player_id", player.ID), zap.Error(err))
	}

	if err := h.db.First(&player, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.audit.Log(audit.AuditEntry{
		TraceID:    mw.GetTraceID(c),
		PlayerID:   &player.ID,
		Nickname:   player.Nickname,
		Action:     "admin_stats_update",
		Request:    req,
		Response:   map[string]int{"experience": player.Experience},
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	})

	c.JSON(http.StatusOK, playerView(&player))
}

type createQuestRequest struct {
	Title            string     `json:"title" binding:"required,max=200"`
	Description      string     `json:"description"`
	Type             string     `json:"type" binding:"required,max=50"`
	TargetValue      int        `json:"target_value" binding:"required,gt=0"`
	RewardXP         int        `json:"reward_xp" binding:"gte=0"`
	RewardCoins      int        `json:"reward_coins" binding:"gte=0"`
	RewardReputation int        `json:"reward_reputation" binding:"gte=0"`
	Difficulty       string     `json:"difficulty" binding:"omitempty,oneof=easy medium hard extreme"`
	Category         string     `json:"category" binding:"omitempty,oneof=permanent daily weekly monthly thematic mythic"`
	IsRepeatable     *bool      `json:"is_repeatable"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

// CreateQuest handles POST /api/admin/quests.
func (h *AdminHandler) CreateQuest(c *gin.Context) {
	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if req.Category == "" {
		req.Category = model.QuestCategoryPermanent
	}

	q := &model.Quest{
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		TargetValue:      req.TargetValue,
		RewardXP:         req.RewardXP,
		RewardCoins:      req.RewardCoins,
		RewardReputation: req.RewardReputation,
		Difficulty:       req.Difficulty,
		Category:         req.Category,
		IsActive:         true,
		IsRepeatable:     req.IsRepeatable == nil || *req.IsRepeatable,
		ExpiresAt:        req.ExpiresAt,
	}
	if err := h.db.Create(q).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, questView(q, nil))
}

type createAchievementRequest struct {
	Title            string             `json:"title" binding:"required,max=200"`
	Description      string             `json:"description"`
	Rarity           string             `json:"rarity" binding:"omitempty,oneof=common rare epic legendary"`
	UnlockCondition  map[string]float64 `json:"unlock_condition" binding:"required"`
	RewardXP         int                `json:"reward_xp" binding:"gte=0"`
	RewardCoins      int                `json:"reward_coins" binding:"gte=0"`
	RewardReputation int                `json:"reward_reputation" binding:"gte=0"`
	IsHidden         bool               `json:"is_hidden"`
}

// CreateAchievement handles POST /api/admin/achievements.
func (h *AdminHandler) CreateAchievement(c *gin.Context) {
	var req createAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.UnlockCondition) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unlock_condition must not be empty"})
		return
	}
	if req.Rarity == "" {
		req.Rarity = "common"
	}

	condition, err := conditionJSON(req.UnlockCondition)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unlock condition"})
		return
	}
	a := &model.Achievement{
		Title:            req.Title,
		Description:      req.Description,
		Rarity:           req.Rarity,
		UnlockCondition:  condition,
		RewardXP:         req.RewardXP,
		RewardCoins:      req.RewardCoins,
		RewardReputation: req.RewardReputation,
		IsHidden:         req.IsHidden,
	}
	if err := h.db.Create(a).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, achievementView(a, false))
}

type createTournamentRequest struct {
	Name            string     `json:"name" binding:"required,max=200"`
	Description     string     `json:"description"`
	TournamentType  string     `json:"tournament_type" binding:"omitempty,oneof=singles teams clans"`
	StartDate       time.Time  `json:"start_date" binding:"required"`
	EndDate         *time.Time `json:"end_date"`
	EntryFee        int        `json:"entry_fee" binding:"gte=0"`
	PrizePool       int        `json:"prize_pool" binding:"gte=0"`
	MaxParticipants int        `json:"max_participants" binding:"gte=0"`
}

// CreateTournament handles POST /api/admin/tournaments.
func (h *AdminHandler) CreateTournament(c *gin.Context) {
	var req createTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TournamentType == "" {
		req.TournamentType = "singles"
	}
	if req.MaxParticipants == 0 {
		req.MaxParticipants = 100
	}

	t := &model.Tournament{
		Name:            req.Name,
		Description:     req.Description,
		TournamentType:  req.TournamentType,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		EntryFee:        req.EntryFee,
		PrizePool:       req.PrizePool,
		MaxParticipants: req.MaxParticipants,
		Status:          model.TournamentUpcoming,
		IsActive:        true,
	}
	if err := h.db.Create(t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, tournamentView(t, 0))
}

// RefreshLeaderboard handles POST /api/admin/leaderboard/refresh.
func (h *AdminHandler) RefreshLeaderboard(c *gin.Context) {
	if err := h.leaderboard.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leaderboard refreshed"})
}

// SchedulerTasks handles GET /api/admin/scheduler.
func (h *AdminHandler) SchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": h.sched.ListTickers()})
}

// BanAccount handles POST /api/admin/accounts/:id/ban.
func (h *AdminHandler) BanAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	res := h.db.Model(&model.Account{}).Where("id = ?", id).Update("status", 0)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	h.audit.Log(audit.AuditEntry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &id,
		Action:    "admin_account_ban",
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "account banned"})
}
