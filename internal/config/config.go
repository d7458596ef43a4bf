package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minTokenSecretLength = 32

type Config struct {
	DatabasePath string
	Port         int
	LogLevel     slog.Level

	TokenSecret     string
	AdminDiscordIDs []string
	// AdminPassword enables password login for the local admin when set.
	AdminPassword string

	DiscordKey         string
	DiscordSecret      string
	DiscordCallbackURL string

	StandingsTTL        time.Duration
	ReportRatePerMinute int
	ReportBurst         int
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DiscordEnabled reports whether Discord OAuth is configured.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordKey != "" && c.DiscordSecret != ""
}

// Load reads the configuration from the environment, loading a .env file first
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabasePath:       orDefault(getenv("DATABASE_PATH"), "tournament.db"),
		TokenSecret:        getenv("TOKEN_SECRET"),
		AdminPassword:      getenv("ADMIN_PASSWORD"),
		DiscordKey:         getenv("DISCORD_KEY"),
		DiscordSecret:      getenv("DISCORD_SECRET"),
		DiscordCallbackURL: getenv("DISCORD_CALLBACK_URL"),
	}

	if len(cfg.TokenSecret) < minTokenSecretLength {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least %d characters", minTokenSecretLength)
	}

	var err error
	if cfg.Port, err = intVar(getenv, "PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.ReportRatePerMinute, err = intVar(getenv, "REPORT_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.ReportBurst, err = intVar(getenv, "REPORT_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.ReportRatePerMinute <= 0 || cfg.ReportBurst <= 0 {
		return nil, fmt.Errorf("REPORT_RATE_PER_MINUTE and REPORT_BURST must be positive")
	}

	cfg.StandingsTTL = 5 * time.Second
	if raw := getenv("STANDINGS_TTL"); raw != "" {
		if cfg.StandingsTTL, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid STANDINGS_TTL: %w", err)
		}
		if cfg.StandingsTTL < 0 {
			return nil, fmt.Errorf("STANDINGS_TTL must not be negative")
		}
	}

	if raw := getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	for _, id := range strings.Split(getenv("ADMIN_DISCORD_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminDiscordIDs = append(cfg.AdminDiscordIDs, id)
		}
	}

	return cfg, nil
}

func intVar(getenv func(string) string, name string, fallback int) (int, error) {
	raw := getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
