package main

import (
	"net/http"
	"os"

	"tripdesk/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tripdesk/internal/auth"
	"tripdesk/internal/cache"
	"tripdesk/internal/config"
	"tripdesk/internal/db"
	"tripdesk/internal/handler"
	"tripdesk/internal/identity"
	"tripdesk/internal/media"
	"tripdesk/internal/model"
	"tripdesk/internal/repository"
	"tripdesk/internal/retry"
	"tripdesk/internal/router"
	"tripdesk/internal/session"
	"tripdesk/internal/upload"
)

// @title Tripdesk Admin Gateway API
// @version 1.0
// @description Session, cookie bridge, and upload relay endpoints for the travel platform admin dashboard.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger := log.With().Str("service", "tripdesk").Logger()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}
	if err := gormDB.AutoMigrate(&model.AuthEvent{}); err != nil {
		logger.Fatal().Err(err).Msg("auto-migrate failed")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	store := session.NewRedisStore(cacheClient)

	readRetry := retry.Policy{MaxAttempts: 3, Backoff: cfg.UploadRetryBackoff}
	identityClient := identity.New(cfg.IdentityAPIURL, readRetry, logger)
	manager := session.NewManager(identityClient, store, cfg.SessionTTL, logger)

	uploadPolicy := retry.Policy{
		MaxAttempts: uint(cfg.UploadMaxAttempts),
		Backoff:     cfg.UploadRetryBackoff,
	}
	mediaClient := media.New(cfg.MediaUploadURL, cfg.MediaAPIKey, uploadPolicy, logger)

	constraints := upload.DefaultConstraints()
	constraints.MaxBytes = cfg.MaxUploadBytes

	eventRepo := repository.NewAuthEventRepository(gormDB)
	inspector := auth.NewTokenInspector(cfg.JWTSecret)

	bridgeHandler := handler.NewAuthBridgeHandler(cfg.CookieSecure)
	sessionHandler := handler.NewSessionHandler(manager, eventRepo, inspector, cfg.CookieSecure, logger)
	uploadHandler := handler.NewUploadHandler(mediaClient, constraints, eventRepo, inspector, logger)
	auditHandler := handler.NewAuditHandler(eventRepo)

	router.Register(e, cfg, store, bridgeHandler, sessionHandler, uploadHandler, auditHandler)

	addr := ":" + cfg.ServerPort
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server start failed")
	}
}
