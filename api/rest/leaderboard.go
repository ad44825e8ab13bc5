package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
	"github.com/mcladder/bedboard/game/progression"
	"github.com/mcladder/bedboard/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	leaderboardKey  = "leaderboard:experience"
	statsCacheKey   = "leaderboard:stats"
	cacheOpTimeout  = 2 * time.Second
	defaultPageSize = 25
)

// LeaderboardHandler serves the experience ranking and aggregate
// statistics. The ranking is read from a cached sorted set rebuilt
// periodically; the database is the fallback when the cache is cold.
type LeaderboardHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	game   config.GameConfig
	logger *zap.Logger
}

func NewLeaderboardHandler(db *gorm.DB, c cache.Cache, game config.GameConfig, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{db: db, cache: c, game: game, logger: logger}
}

// sortColumns whitelists the ?sort= values against column injection.
var sortColumns = map[string]string{
	"experience":   "experience",
	"kills":        "kills",
	"final_kills":  "final_kills",
	"beds_broken":  "beds_broken",
	"wins":         "wins",
	"games_played": "games_played",
}

// Get handles GET /api/leaderboard. Supports ?limit= up to the
// configured cap and ?sort= over the whitelisted counters. Only the
// default experience sort is backed by the cached sorted set.
func (h *LeaderboardHandler) Get(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > h.game.LeaderboardTop {
		limit = h.game.LeaderboardTop
	}
	column, ok := sortColumns[c.DefaultQuery("sort", "experience")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort column"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
	defer cancel()

	var entries []gin.H
	var err error
	if column == "experience" {
		entries, err = h.fromCache(ctx, limit)
	}
	if err != nil || len(entries) == 0 {
		entries, err = h.fromDB(column, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *LeaderboardHandler) fromCache(ctx context.Context, limit int) ([]gin.H, error) {
	members, err := h.cache.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1))
	if err != nil || len(members) == 0 {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var players []model.Player
	if err := h.db.Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	entries := make([]gin.H, 0, len(ids))
	for rank, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		entries = append(entries, rankedView(rank+1, p))
	}
	return entries, nil
}

func (h *LeaderboardHandler) fromDB(column string, limit int) ([]gin.H, error) {
	var players []model.Player
	err := h.db.Order(column + " DESC").Limit(limit).Find(&players).Error
	if err != nil {
		return nil, err
	}
	entries := make([]gin.H, 0, len(players))
	for i := range players {
		entries = append(entries, rankedView(i+1, &players[i]))
	}
	return entries, nil
}

func rankedView(rank int, p *model.Player) gin.H {
	return gin.H{
		"rank":        rank,
		"id":          p.ID,
		"nickname":    p.Nickname,
		"experience":  p.Experience,
		"level":       progression.Level(p.Experience),
		"kills":       p.Kills,
		"final_kills": p.FinalKills,
		"beds_broken": p.BedsBroken,
		"wins":        p.Wins,
		"kd_ratio":    progression.KDRatio(p.Kills, p.Deaths),
		"win_rate":    progression.WinRate(p.Wins, p.GamesPlayed),
		"star_rating": progression.StarRating(p.Experience, playerStats(p)),
	}
}

// aggregateStats is the cached /api/leaderboard/stats payload.
type aggregateStats struct {
	TotalPlayers    int64 `json:"total_players"`
	TotalKills      int64 `json:"total_kills"`
	TotalFinalKills int64 `json:"total_final_kills"`
	TotalBedsBroken int64 `json:"total_beds_broken"`
	TotalGames      int64 `json:"total_games"`
	TotalWins       int64 `json:"total_wins"`
	TotalExperience int64 `json:"total_experience"`
}

// Stats handles GET /api/leaderboard/stats. The aggregate is cached
// with a short TTL since it scans the whole players table.
func (h *LeaderboardHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
	defer cancel()

	if raw, err := h.cache.Get(ctx, statsCacheKey); err == nil && raw != "" {
		var stats aggregateStats
		if json.Unmarshal([]byte(raw), &stats) == nil {
			c.JSON(http.StatusOK, stats)
			return
		}
	}

	var stats aggregateStats
	row := h.db.Model(&model.Player{}).Select(
		"COUNT(*) AS total_players," +
			"COALESCE(SUM(kills),0) AS total_kills," +
			"COALESCE(SUM(final_kills),0) AS total_final_kills," +
			"COALESCE(SUM(beds_broken),0) AS total_beds_broken," +
			"COALESCE(SUM(games_played),0) AS total_games," +
			"COALESCE(SUM(wins),0) AS total_wins," +
			"COALESCE(SUM(experience),0) AS total_experience")
	if err := row.Scan(&stats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if raw, err := json.Marshal(stats); err == nil {
		_ = h.cache.Set(ctx, statsCacheKey, string(raw), h.game.StatsCacheTTL)
	}
	c.JSON(http.StatusOK, stats)
}

// Refresh rebuilds the ranking sorted set from the database. It runs on
// a scheduler ticker and can be forced through the admin API.
func (h *LeaderboardHandler) Refresh(ctx context.Context) error {
	var players []model.Player
	err := h.db.WithContext(ctx).
		Select("id", "experience").
		Order("experience DESC").
		Limit(h.game.LeaderboardTop).
		Find(&players).Error
	if err != nil {
		return err
	}

	if err := h.cache.Del(ctx, leaderboardKey); err != nil {
		return err
	}
	for _, p := range players {
		member := strconv.FormatInt(p.ID, 10)
		if err := h.cache.ZAdd(ctx, leaderboardKey, float64(p.Experience), member); err != nil {
			return err
		}
	}
	h.logger.Debug("leaderboard refreshed", zap.Int("players", len(players)))
	return nil
}
