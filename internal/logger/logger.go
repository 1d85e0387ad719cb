package logger

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const DefaultLevel = zerolog.InfoLevel

// New builds the process logger. The level comes from LOG_LEVEL, read before
// the rest of the configuration so config loading itself is logged at it.
func New() zerolog.Logger {
	_ = godotenv.Load()
	return WithLevel(os.Getenv("LOG_LEVEL"))
}

// WithLevel builds a logger at the named level. Unknown or empty names fall
// back to DefaultLevel.
func WithLevel(name string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger.Level(ParseLevel(name))
}

func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return DefaultLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return DefaultLevel
	}
	return level
}

var Module = fx.Provide(New)
