package main

import (
	"net/http"
	"os"

	"mystery-manor/internal/config"
	"mystery-manor/internal/db"
	"mystery-manor/internal/server"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn("failed to load .env", zap.Error(err))
	}
	cfg := config.Load()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		conn, err = db.Open(cfg)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		if err := db.Migrate(conn); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
	} else {
		logger.Info("DATABASE_URL not set, running without persistence")
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg, logger)
	logger.Info("mystery-manor server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
