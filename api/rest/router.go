package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/audit"
	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
	"github.com/mcladder/bedboard/game/achievement"
	"github.com/mcladder/bedboard/game/quest"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Cfg    *config.Config
	Logger *zap.Logger
	Audit  *audit.Service
	Sched  *scheduler.Scheduler

	Quests       *quest.Service
	Achievements *achievement.Service
	Leaderboard  *LeaderboardHandler
}

// NewRouter builds the full HTTP surface: public read endpoints,
// JWT-protected player actions and the key-protected admin API.
func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		mw.TraceID(),
		mw.Logger(d.Logger),
		mw.Recovery(d.Logger),
		mw.RateLimit(rate.Limit(d.Cfg.Security.RateLimitRPS), d.Cfg.Security.RateLimitBurst),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(d.DB, d.Cache, d.Cfg.Security)
	playerHandler := NewPlayerHandler(d.DB)
	questHandler := NewQuestHandler(d.DB, d.Quests, d.Logger)
	clanHandler := NewClanHandler(d.DB)
	tournamentHandler := NewTournamentHandler(d.DB)
	achievementHandler := NewAchievementHandler(d.DB, d.Achievements)
	adminHandler := NewAdminHandler(d.DB, d.Audit, d.Leaderboard, d.Sched, d.Quests, d.Achievements, d.Logger)

	api := r.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		api.GET("/leaderboard", d.Leaderboard.Get)
		api.GET("/leaderboard/stats", d.Leaderboard.Stats)
		api.GET("/players", playerHandler.List)
		api.GET("/players/:id", playerHandler.Get)
		api.GET("/quests", questHandler.List)
		api.GET("/clans", clanHandler.List)
		api.GET("/clans/:id", clanHandler.Get)
		api.GET("/tournaments", tournamentHandler.List)
		api.GET("/achievements", achievementHandler.List)
	}

	authed := api.Group("")
	authed.Use(mw.Auth(d.Cfg.Security, d.Cache))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/refresh", authHandler.Refresh)
		authed.POST("/players/claim", playerHandler.Claim)
		authed.POST("/quests/:id/accept", questHandler.Accept)
		authed.POST("/quests/progress", questHandler.Progress)
		authed.GET("/achievements/mine", achievementHandler.Mine)
		authed.POST("/clans", clanHandler.Create)
		authed.POST("/clans/:id/join", clanHandler.Join)
		authed.POST("/clans/:id/kick", clanHandler.Kick)
		authed.PUT("/clans/:id/notice", clanHandler.UpdateNotice)
		authed.POST("/tournaments/:id/join", tournamentHandler.Join)
	}

	admin := api.Group("/admin")
	admin.Use(mw.IPWhitelist(d.Cfg.Server.AdminIPs), AdminAuth(d.Cfg.Server.AdminKey))
	{
		admin.POST("/players", adminHandler.CreatePlayer)
		admin.PUT("/players/:id/stats", adminHandler.UpdateStats)
		admin.POST("/quests", adminHandler.CreateQuest)
		admin.POST("/achievements", adminHandler.CreateAchievement)
		admin.POST("/tournaments", adminHandler.CreateTournament)
		admin.POST("/leaderboard/refresh", adminHandler.RefreshLeaderboard)
		admin.GET("/scheduler", adminHandler.SchedulerTasks)
		admin.POST("/accounts/:id/ban", adminHandler.BanAccount)
	}

	return r
}
