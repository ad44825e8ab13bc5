package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/game/achievement"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"gorm.io/gorm"
)

// AchievementHandler lists achievements and checks unlocks.
type AchievementHandler struct {
	db  *gorm.DB
	svc *achievement.Service
}

func NewAchievementHandler(db *gorm.DB, svc *achievement.Service) *AchievementHandler {
	return &AchievementHandler{db: db, svc: svc}
}

func achievementView(a *model.Achievement, earned bool) gin.H {
	return gin.H{
		"id":                a.ID,
		"title":             a.Title,
		"description":       a.Description,
		"rarity":            a.Rarity,
		"reward_xp":         a.RewardXP,
		"reward_coins":      a.RewardCoins,
		"reward_reputation": a.RewardReputation,
		"earned":            earned,
	}
}

// List handles GET /api/achievements. Hidden achievements are excluded
// from the public listing.
func (h *AchievementHandler) List(c *gin.Context) {
	var achievements []model.Achievement
	if err := h.db.Where("is_hidden = ?", false).Order("id").Find(&achievements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	views := make([]gin.H, 0, len(achievements))
	for i := range achievements {
		views = append(views, achievementView(&achievements[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"achievements": views})
}

// Mine handles GET /api/achievements/mine. Unlock conditions are
// re-evaluated first, so a freshly earned achievement appears
// immediately; hidden achievements show up once earned.
func (h *AchievementHandler) Mine(c *gin.Context) {
	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	newlyEarned, err := h.svc.CheckAndGrant(c.Request.Context(), player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var records []model.PlayerAchievement
	if err := h.db.Where("player_id = ?", player.ID).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.AchievementID)
	}

	var achievements []model.Achievement
	if len(ids) > 0 {
		if err := h.db.Where("id IN ?", ids).Find(&achievements).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	views := make([]gin.H, 0, len(achievements))
	for i := range achievements {
		views = append(views, achievementView(&achievements[i], true))
	}

	newViews := make([]gin.H, 0, len(newlyEarned))
	for i := range newlyEarned {
		newViews = append(newViews, achievementView(&newlyEarned[i], true))
	}

	c.JSON(http.StatusOK, gin.H{
		"achievements": views,
		"newly_earned": newViews,
	})
}
