package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcladder/bedboard/api/rest"
	"github.com/mcladder/bedboard/audit"
	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
	"github.com/mcladder/bedboard/db"
	"github.com/mcladder/bedboard/game/achievement"
	"github.com/mcladder/bedboard/game/quest"
	"github.com/mcladder/bedboard/model"
	"github.com/mcladder/bedboard/scheduler"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Server.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := model.AutoMigrate(gdb); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	cacheClient, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		logger.Fatal("init cache", zap.Error(err))
	}

	auditSvc := audit.New(gdb, logger)
	questSvc := quest.NewService(gdb, logger)
	achievementSvc := achievement.NewService(gdb, logger)
	leaderboard := rest.NewLeaderboardHandler(gdb, cacheClient, cfg.Game, logger)

	sched := scheduler.New(logger)
	sched.AddTicker("quest_refresh", cfg.Game.QuestRefreshInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := questSvc.RefreshTimedQuests(ctx, time.Now()); err != nil {
			logger.Error("scheduled quest refresh failed", zap.Error(err))
		}
	})
	sched.AddTicker("leaderboard_refresh", cfg.Game.LeaderboardRefreshInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := leaderboard.Refresh(ctx); err != nil {
			logger.Error("scheduled leaderboard refresh failed", zap.Error(err))
		}
	})

	// Warm the ranking cache before serving.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := leaderboard.Refresh(ctx); err != nil {
			logger.Warn("initial leaderboard refresh failed", zap.Error(err))
		}
		cancel()
	}

	router := rest.NewRouter(rest.Deps{
		DB:           gdb,
		Cache:        cacheClient,
		Cfg:          cfg,
		Logger:       logger,
		Audit:        auditSvc,
		Sched:        sched,
		Quests:       questSvc,
		Achievements: achievementSvc,
		Leaderboard:  leaderboard,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	auditSvc.Stop(ctx)
}
