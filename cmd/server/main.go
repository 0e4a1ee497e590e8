package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/api"
	"github.com/david/tender-finder/internal/auth"
	"github.com/david/tender-finder/internal/config"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/logger"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, lg); err != nil {
		lg.Fatal("Migration failed", zap.Error(err))
	}

	secret, err := auth.ResolveSecret(cfg.JWTSecret, lg)
	if err != nil {
		lg.Fatal("Failed to resolve JWT secret", zap.Error(err))
	}

	srv := api.NewServer(api.Options{
		Store:          db.NewStore(pool),
		Auth:           auth.NewService(pool, secret),
		Logger:         lg,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})
	lg.Info("Server starting", zap.String("port", cfg.Port), zap.String("upload_dir", cfg.UploadDir))
	if err := srv.Start(cfg.Port); err != nil {
		lg.Fatal("Server stopped", zap.Error(err))
	}
}
