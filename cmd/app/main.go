package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingo_xp/internal/cache"
	"lingo_xp/internal/config"
	"lingo_xp/internal/db"
	httpServer "lingo_xp/internal/http"
	"lingo_xp/internal/http/handlers"
	"lingo_xp/internal/http/middleware"
	"lingo_xp/internal/logger"
	"lingo_xp/internal/repository"
	"lingo_xp/internal/service"
	"lingo_xp/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.ConnectAndMigrate(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var redisPinger handlers.Pinger
	if rdb != nil {
		defer rdb.Close()
		redisPinger = handlers.RedisPinger{Client: rdb}
	}
	middleware.InitRedisRateLimiter(rdb)

	hub := ws.NewHub()
	go hub.Run()

	history := service.NewXPHistoryService(repository.NewXPHistoryRepository(dbPool), cfg.HistoryQueueSize)
	svc := service.NewLeaderboardService(
		repository.NewLeaderboardRepository(dbPool),
		cache.NewLeaderboardCache(rdb, cfg.LeaderboardCacheTTL),
		hub,
		history,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, cfg, httpServer.Deps{
		Service: svc,
		DB:      dbPool,
		Redis:   redisPinger,
		Hub:     hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()
	history.Close()

	logger.Info("server exited")
}
