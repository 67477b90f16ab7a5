package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/auth"
	"github.com/lmeyer/smokefree/internal/config"
	"github.com/lmeyer/smokefree/internal/database"
	"github.com/lmeyer/smokefree/internal/handler"
	"github.com/lmeyer/smokefree/internal/queue"
	"github.com/lmeyer/smokefree/internal/repository"
	"github.com/lmeyer/smokefree/internal/router"
	queue_publisher "github.com/lmeyer/smokefree/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.WithError(err).Fatal("ensure schema failed")
	}
	cancel()

	users := repository.NewUserRepo(db)
	milestones := repository.NewMilestoneRepo(db)
	resolver := repository.NewResolver(users)

	provider := auth.NewProvider(
		[]byte(cfg.JWTSecret),
		time.Duration(cfg.TokenTTLHours)*time.Hour,
		nil,
	)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled")
	}

	authHandler := handler.NewAuthHandler(cfg, users, provider, log)
	authHandler.Publish = queue_publisher.PublishUserRegistered
	profileHandler := handler.NewProfileHandler(users, resolver, log)
	progressHandler := handler.NewProgressHandler(resolver, milestones, log)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, authHandler, profileHandler, progressHandler,
		provider, log, rdb, config.LoadCacheConfig(), config.LoadRateLimitConfig())

	go func() {
		if err := queue.StartSignupConsumer(); err != nil {
			log.WithError(err).Warn("signup consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
