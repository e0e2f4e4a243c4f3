package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"chessnut/internal/cards"
	"chessnut/internal/config"
	"chessnut/internal/server"
	"chessnut/internal/session"
	"chessnut/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	mgr := session.NewManager(session.Config{
		Defaults: cfg.Room,
		Grace:    cfg.ReconnectGrace,
	}, cards.BuildCatalog(), store, logger.Named("session"))

	go mgr.CleanupLoop(cfg.CleanupInterval, cfg.RoomMaxAge)

	srv := server.New(mgr, store, logger.Named("server"))

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
