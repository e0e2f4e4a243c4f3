// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"chessnut/internal/cards"
	"chessnut/internal/game"
)

// Config holds everything main needs to wire the server.
type Config struct {
	Addr            string
	DBPath          string
	ReconnectGrace  time.Duration
	CleanupInterval time.Duration
	RoomMaxAge      time.Duration
	Room            game.Options
	LogDev          bool
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Every invalid value is
// reported, not just the first.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		Addr:            ":" + p.str("PORT", "8080"),
		DBPath:          p.str("DB_PATH", "chessnut.db"),
		ReconnectGrace:  p.duration("RECONNECT_GRACE", 30*time.Second),
		CleanupInterval: p.duration("CLEANUP_INTERVAL", time.Minute),
		RoomMaxAge:      p.duration("ROOM_MAX_AGE", time.Hour),
		Room: game.Options{
			AutoDraw:    p.boolean("AUTO_DRAW", true),
			NoRemise:    p.boolean("NO_REMISE", false),
			InitialHand: p.integer("INITIAL_HAND", 2),
		},
		LogDev: p.boolean("LOG_DEV", false),
	}
	if n := cfg.Room.InitialHand; n < 0 || n > cards.HandLimit {
		p.fail("INITIAL_HAND", strconv.Itoa(n), fmt.Errorf("must be between 0 and %d", cards.HandLimit))
	}
	return cfg, p.err
}

type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) fail(key, value string, err error) {
	p.err = multierr.Append(p.err, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err == nil && d <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	p.fail(key, v, errors.New("not a boolean"))
	return def
}
