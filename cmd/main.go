package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MZhann/AI-Legal-Assistant/internal/app/hub"
	"github.com/MZhann/AI-Legal-Assistant/internal/app/server"
	"github.com/MZhann/AI-Legal-Assistant/internal/app/server/handlers"
	"github.com/MZhann/AI-Legal-Assistant/internal/config"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/services"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/logger"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/telemetry"
	"github.com/MZhann/AI-Legal-Assistant/internal/plugins/postgres"
	redisPlugin "github.com/MZhann/AI-Legal-Assistant/internal/plugins/redis"
	"github.com/MZhann/AI-Legal-Assistant/pkg/middleware"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN, "err", err)
		return
	}
	log.Info("postgres connected")
	defer func() { _ = pdb.Close() }()

	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	log.Info("redis connected")
	defer func() { _ = rdb.Close() }()

	// Adapters
	userRepo := postgres.NewUserRepository(pdb)
	convRepo := postgres.NewConversationRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	presCache := redisPlugin.NewRedisPresenceCache(rdb)
	txManager := postgres.NewTxManager(pdb)

	// Core services
	registry := hub.New(log)
	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gate := services.NewSessionGate(log, tokenSvc, userRepo)
	userSvc := services.NewUserService(log, userRepo, cfg.Auth.BcryptCost)
	convSvc := services.NewConversationService(log, convRepo, msgRepo, userRepo, txManager, *cfg.Chat)
	presenceSvc := services.NewPresenceService(log, userRepo, convRepo, presCache, registry, *cfg.Chat)
	registry.SetPresenceNotifier(presenceSvc)

	// Transport
	authHandler := handlers.NewAuthHandler(userSvc, tokenSvc)
	chatHandler := handlers.NewChatHandler(userSvc, convSvc, registry)
	wsHandler := handlers.NewWSHandler(registry, gate, convSvc, presenceSvc, cfg.Chat.HeartbeatInterval)

	srv := server.NewServer(log, cfg.Service, authHandler, chatHandler, wsHandler,
		middleware.AuthMiddleware(tokenSvc))

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "err", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}
