package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

const DefaultRatingConfigPath = "elo-config.yaml"

type Config struct {
	DBDriver   string
	DBPath     string
	BoltPath   string
	ServerPort string
	LogLevel   string
	GamesDir   string

	RiotAPIKey        string
	RiotPlatform      string
	RiotRegion        string
	RiotAccountRegion string

	RatingConfigPath string
	Rating           Rating
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBDriver:          getEnv("DB_DRIVER", DriverSQLite),
		DBPath:            getEnv("DB_PATH", "elo.db"),
		BoltPath:          getEnv("BOLT_PATH", "elo.bolt"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GamesDir:          getEnv("GAMES_DIR", "games"),
		RiotAPIKey:        getEnv("RIOT_API_KEY", ""),
		RiotPlatform:      getEnv("RIOT_PLATFORM", "oc1"),
		RiotRegion:        getEnv("RIOT_REGION", "sea"),
		RiotAccountRegion: getEnv("RIOT_ACCOUNT_REGION", "asia"),
		RatingConfigPath:  getEnv("RATING_CONFIG", ""),
	}

	if cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverBolt {
		return nil, fmt.Errorf("%w: DB_DRIVER must be %q or %q, got %q", ErrInvalidConfig, DriverSQLite, DriverBolt, cfg.DBDriver)
	}

	rating, err := loadRatingFor(cfg.RatingConfigPath, logger)
	if err != nil {
		return nil, err
	}
	cfg.Rating = rating

	if cfg.RiotAPIKey == "" {
		logger.Warn().Msg("RIOT_API_KEY not set, match fetching disabled")
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("base_elo", cfg.Rating.BaseElo).
		Strs("method_priority", cfg.Rating.MethodPriority).
		Msg("configuration loaded")

	return cfg, nil
}

// loadRatingFor reads an explicitly configured rating file, or the default
// path if it exists, or falls back to built-in defaults.
func loadRatingFor(path string, logger zerolog.Logger) (Rating, error) {
	if path != "" {
		return LoadRating(path)
	}

	if _, err := os.Stat(DefaultRatingConfigPath); err == nil {
		return LoadRating(DefaultRatingConfigPath)
	}

	logger.Debug().Str("path", DefaultRatingConfigPath).Msg("rating config not found, using defaults")
	return DefaultRating(), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
