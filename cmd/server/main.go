package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegboard/cribbage/internal/cache"
	"github.com/pegboard/cribbage/internal/config"
	"github.com/pegboard/cribbage/internal/database"
	"github.com/pegboard/cribbage/internal/game"
	"github.com/pegboard/cribbage/internal/handlers"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logrus.WithError(err).Fatal("schema setup failed")
	}

	if cfg.RedisAddr == "" {
		logrus.Warn("no redis address configured; action history disabled")
	} else if err := cache.InitRedis(ctx, cfg.RedisAddr); err != nil {
		logrus.WithError(err).Warn("redis unavailable; action history disabled")
	}

	hub := handlers.NewHub()
	registry, err := game.NewRegistry(ctx, db, hub.Notify)
	if err != nil {
		logrus.WithError(err).Fatal("registry setup failed")
	}

	server := handlers.NewServer(registry, hub, []byte(cfg.JWTSecret), []byte(cfg.ResetSecretHash))

	logrus.WithField("addr", cfg.Addr).Info("cribbage server listening")
	if err := http.ListenAndServe(cfg.Addr, server.Routes()); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
