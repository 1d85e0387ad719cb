package repository

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"league-elo/internal/config"
	"league-elo/internal/database"
)

// Stores is the pair of stores backed by one database file.
type Stores struct {
	Ratings RatingStore
	Games   GameStore
	Driver  string

	closer io.Closer
}

// Open opens the stores for driver at path.
func Open(driver, path string, logger zerolog.Logger) (*Stores, error) {
	switch driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(path, logger)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Ratings: NewPlayerRepository(db, logger),
			Games:   NewGameRepository(db, logger),
			Driver:  driver,
			closer:  db,
		}, nil
	case config.DriverBolt:
		db, err := database.OpenBolt(path, logger)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Ratings: NewBoltPlayerStore(db, logger),
			Games:   NewBoltGameStore(db, logger),
			Driver:  driver,
			closer:  db,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown database driver %q", config.ErrInvalidConfig, driver)
}

// OpenConfigured opens the stores selected by DB_DRIVER.
func OpenConfigured(cfg *config.Config, logger zerolog.Logger) (*Stores, error) {
	path := cfg.DBPath
	if cfg.DBDriver == config.DriverBolt {
		path = cfg.BoltPath
	}
	return Open(cfg.DBDriver, path, logger)
}

func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
