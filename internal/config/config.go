// Package config loads server configuration from an optional .env file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string `env:"CHAT_ADDR" envDefault:":3000"`
	ModeratorSecret string `env:"CHAT_MODERATOR_SECRET,required"`
	StaticDir       string `env:"CHAT_STATIC_DIR" envDefault:"./static"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`

	ModerationWindow time.Duration `env:"CHAT_MODERATION_WINDOW" envDefault:"5s"`
	MessageCooldown  time.Duration `env:"CHAT_MESSAGE_COOLDOWN" envDefault:"5s"`
	KickCloseDelay   time.Duration `env:"CHAT_KICK_CLOSE_DELAY" envDefault:"100ms"`

	MaxNameLength    int `env:"CHAT_MAX_NAME_LENGTH" envDefault:"20"`
	MaxMessageLength int `env:"CHAT_MAX_MESSAGE_LENGTH" envDefault:"1000"`
	HistoryLimit     int `env:"CHAT_HISTORY_LIMIT" envDefault:"0"`
	SendBuffer       int `env:"CHAT_SEND_BUFFER" envDefault:"64"`
}

// Load reads envFile into the environment when it exists, then parses the
// environment. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.ModerationWindow <= 0:
		return fmt.Errorf("CHAT_MODERATION_WINDOW must be positive, got %s", c.ModerationWindow)
	case c.MessageCooldown <= 0:
		return fmt.Errorf("CHAT_MESSAGE_COOLDOWN must be positive, got %s", c.MessageCooldown)
	case c.KickCloseDelay < 0:
		return fmt.Errorf("CHAT_KICK_CLOSE_DELAY must not be negative, got %s", c.KickCloseDelay)
	case c.MaxNameLength <= 0:
		return fmt.Errorf("CHAT_MAX_NAME_LENGTH must be positive, got %d", c.MaxNameLength)
	case c.MaxMessageLength <= 0:
		return fmt.Errorf("CHAT_MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	case c.HistoryLimit < 0:
		return fmt.Errorf("CHAT_HISTORY_LIMIT must not be negative, got %d", c.HistoryLimit)
	case c.SendBuffer <= 0:
		return fmt.Errorf("CHAT_SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
