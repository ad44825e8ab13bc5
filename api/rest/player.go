package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/game/progression"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"gorm.io/gorm"
)

// PlayerHandler serves player profiles.
type PlayerHandler struct {
	db *gorm.DB
}

func NewPlayerHandler(db *gorm.DB) *PlayerHandler {
	return &PlayerHandler{db: db}
}

// playerStats extracts the counters the progression formulas read.
func playerStats(p *model.Player) progression.Stats {
	return progression.Stats{
		Kills:          p.Kills,
		FinalKills:     p.FinalKills,
		Deaths:         p.Deaths,
		BedsBroken:     p.BedsBroken,
		GamesPlayed:    p.GamesPlayed,
		Wins:           p.Wins,
		TotalResources: p.TotalResources(),
	}
}

// playerView renders a player with all derived fields.
func playerView(p *model.Player) gin.H {
	stats := playerStats(p)
	return gin.H{
		"id":                p.ID,
		"nickname":          p.Nickname,
		"kills":             p.Kills,
		"final_kills":       p.FinalKills,
		"deaths":            p.Deaths,
		"final_deaths":      p.FinalDeaths,
		"beds_broken":       p.BedsBroken,
		"games_played":      p.GamesPlayed,
		"wins":              p.Wins,
		"experience":        p.Experience,
		"total_resources":   p.TotalResources(),
		"iron_collected":    p.IronCollected,
		"gold_collected":    p.GoldCollected,
		"diamond_collected": p.DiamondCollected,
		"emerald_collected": p.EmeraldCollected,
		"items_purchased":   p.ItemsPurchased,
		"coins":             p.Coins,
		"reputation":        p.Reputation,
		"role":              p.Role,
		"level":             progression.Level(p.Experience),
		"level_progress":    progression.LevelProgress(p.Experience),
		"kd_ratio":          progression.KDRatio(p.Kills, p.Deaths),
		"fkd_ratio":         progression.FKDRatio(p.FinalKills, p.FinalDeaths),
		"win_rate":          progression.WinRate(p.Wins, p.GamesPlayed),
		"star_rating":       progression.StarRating(p.Experience, stats),
		"created_at":        p.CreatedAt,
		"last_updated":      p.LastUpdated,
	}
}

// List handles GET /api/players.
// Supports ?search= (nickname substring), ?page= and ?page_size=.
func (h *PlayerHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	q := h.db.Model(&model.Player{})
	if search := c.Query("search"); search != "" {
		q = q.Where("nickname LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var players []model.Player
	err := q.Order("experience DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&players).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	views := make([]gin.H, 0, len(players))
	for i := range players {
		views = append(views, playerView(&players[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"players":   views,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get handles GET /api/players/:id.
func (h *PlayerHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	var player model.Player
	if err := h.db.First(&player, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, playerView(&player))
}

type claimRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=100"`
}

// Claim handles POST /api/players/claim. It links the authenticated
// account to an unclaimed player record, giving the account access to
// quest and clan actions for that player.
func (h *PlayerHandler) Claim(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Player
		err := tx.Where("account_id = ?", accountID).First(&existing).Error
		if err == nil {
			return errAlreadyClaimed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var player model.Player
		if err := tx.Where("nickname = ?", req.Nickname).First(&player).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errPlayerNotFound
			}
			return err
		}
		if player.AccountID != nil {
			return errPlayerTaken
		}
		return tx.Model(&player).Update("account_id", accountID).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "player claimed"})
	case errors.Is(err, errAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "account already has a player"})
	case errors.Is(err, errPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
	case errors.Is(err, errPlayerTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "player already claimed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var (
	errAlreadyClaimed = errors.New("account already has a player")
	errPlayerNotFound = errors.New("player not found")
	errPlayerTaken    = errors.New("player already claimed")
)

// playerForAccount resolves the player record claimed by an account.
func playerForAccount(db *gorm.DB, accountID int64) (*model.Player, error) {
	var player model.Player
	if err := db.Where("account_id = ?", accountID).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}
