package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/rs/zerolog"

	"league-elo/internal/domain"
)

var (
	playersBucket = []byte("players")
	gamesBucket   = []byte("games")
)

// BoltPlayerStore keeps one JSON document per player, keyed by name.
type BoltPlayerStore struct {
	db     *bolt.DB
	logger zerolog.Logger
}

func NewBoltPlayerStore(db *bolt.DB, logger zerolog.Logger) *BoltPlayerStore {
	return &BoltPlayerStore{db: db, logger: logger}
}

func (s *BoltPlayerStore) Load(_ context.Context, name string) (*domain.RatingRecord, error) {
	var rec *domain.RatingRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(playersBucket)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(name))
		if data == nil {
			return nil
		}
		rec = new(domain.RatingRecord)
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", name, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("player %s: %w", name, ErrNotFound)
	}
	return rec, nil
}

func (s *BoltPlayerStore) Save(ctx context.Context, record *domain.RatingRecord) error {
	return s.SaveAll(ctx, []*domain.RatingRecord{record})
}

func (s *BoltPlayerStore) SaveAll(_ context.Context, records []*domain.RatingRecord) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(playersBucket)
		if err != nil {
			return fmt.Errorf("unable to create bucket: %w", err)
		}
		for _, rec := range records {
			if err := putJSON(b, rec.Name, rec); err != nil {
				return fmt.Errorf("unable to put player %s: %w", rec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("players saved")
	return nil
}

func (s *BoltPlayerStore) List(_ context.Context, minGames int) ([]domain.RatingRecord, error) {
	players := make([]domain.RatingRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(playersBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec domain.RatingRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unable to unmarshal player: %w", err)
			}
			if rec.Games < minGames {
				return nil
			}
			rec.RatingHistory = nil
			rec.PerformanceHistory = nil
			players = append(players, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Rating != players[j].Rating {
			return players[i].Rating > players[j].Rating
		}
		return players[i].Name < players[j].Name
	})
	return players, nil
}

// BoltGameStore keeps one JSON document per game, keyed by game id.
type BoltGameStore struct {
	db     *bolt.DB
	logger zerolog.Logger
}

func NewBoltGameStore(db *bolt.DB, logger zerolog.Logger) *BoltGameStore {
	return &BoltGameStore{db: db, logger: logger}
}

func (s *BoltGameStore) Save(_ context.Context, game *domain.Game) error {
	now := time.Now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(gamesBucket)
		if err != nil {
			return fmt.Errorf("unable to create bucket: %w", err)
		}

		stored := *game
		if data := b.Get([]byte(game.GameID)); data != nil {
			var existing domain.Game
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("unable to unmarshal game: %w", err)
			}
			stored.CreatedAt = existing.CreatedAt
			stored.ProcessedAt = existing.ProcessedAt
			stored.Results = existing.Results
			stored.Method = existing.Method
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now

		if err := putJSON(b, stored.GameID, stored); err != nil {
			return err
		}
		game.CreatedAt, game.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("game_id", game.GameID).Msg("failed to save game")
		return fmt.Errorf("failed to save game %s: %w", game.GameID, err)
	}
	return nil
}

func (s *BoltGameStore) Get(_ context.Context, gameID string) (*domain.Game, error) {
	var game *domain.Game
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(gamesBucket)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(gameID))
		if data == nil {
			return nil
		}
		game = new(domain.Game)
		return json.Unmarshal(data, game)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	if game == nil {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	return game, nil
}

func (s *BoltGameStore) List(_ context.Context) ([]domain.Game, error) {
	return s.filter(func(domain.Game) bool { return true })
}

func (s *BoltGameStore) ListPending(_ context.Context) ([]domain.Game, error) {
	return s.filter(func(g domain.Game) bool { return g.ProcessedAt == nil })
}

func (s *BoltGameStore) filter(keep func(domain.Game) bool) ([]domain.Game, error) {
	games := make([]domain.Game, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(gamesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var g domain.Game
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("unable to unmarshal game: %w", err)
			}
			if keep(g) {
				games = append(games, g)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].StartedAt.Equal(games[j].StartedAt) {
			return games[i].StartedAt.Before(games[j].StartedAt)
		}
		return games[i].GameID < games[j].GameID
	})
	return games, nil
}

func (s *BoltGameStore) MarkProcessed(_ context.Context, gameID, method string, results []domain.MatchResult, at time.Time) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(gamesBucket)
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(gameID))
		if data == nil {
			return ErrNotFound
		}

		var g domain.Game
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("unable to unmarshal game: %w", err)
		}
		g.Results = results
		g.Method = method
		g.ProcessedAt = &at
		g.UpdatedAt = at
		return putJSON(b, gameID, g)
	})
	if err != nil {
		return fmt.Errorf("failed to mark game %s processed: %w", gameID, err)
	}

	s.logger.Debug().Str("game_id", gameID).Str("method", method).Msg("game marked processed")
	return nil
}

func (s *BoltGameStore) Stats(_ context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(playersBucket); b != nil {
			stats.Players = b.Stats().KeyN
		}
		b := tx.Bucket(gamesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var g struct {
				ProcessedAt *time.Time `json:"processedAt"`
			}
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("unable to unmarshal game: %w", err)
			}
			stats.Games++
			if g.ProcessedAt != nil {
				stats.ProcessedGames++
			}
			return nil
		})
	})
	if err != nil {
		return stats, fmt.Errorf("failed to get stats: %w", err)
	}
	stats.PendingGames = stats.Games - stats.ProcessedGames
	return stats, nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("unable to marshal %s into json: %w", key, err)
	}
	return b.Put([]byte(key), data)
}
