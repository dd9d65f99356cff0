package server

import (
	"sync"
	"time"

	"mystery-manor/internal/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	store     *Store
	db        *gorm.DB
	ws        *wsHub
	cfg       config.Config
	generator ContentGenerator
	logger    *zap.Logger
	timersMu  sync.Mutex
	timers    map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     NewStore(),
		db:        conn,
		ws:        newWSHub(),
		cfg:       cfg,
		generator: newOpenAIGenerator(cfg, logger),
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
}
