package repository

import (
	"context"
	"time"

	"league-elo/internal/domain"
)

// ErrNotFound is returned by every store for a missing player or game.
var ErrNotFound = domain.ErrNotFound

// RatingStore persists player rating records. Records returned by List carry
// no history.
type RatingStore interface {
	Load(ctx context.Context, name string) (*domain.RatingRecord, error)
	Save(ctx context.Context, record *domain.RatingRecord) error
	SaveAll(ctx context.Context, records []*domain.RatingRecord) error
	List(ctx context.Context, minGames int) ([]domain.RatingRecord, error)
}

// GameStore persists raw games and their processed marker. Saving an existing
// game refreshes its data but keeps its processed state.
type GameStore interface {
	Save(ctx context.Context, game *domain.Game) error
	Get(ctx context.Context, gameID string) (*domain.Game, error)
	List(ctx context.Context) ([]domain.Game, error)
	ListPending(ctx context.Context) ([]domain.Game, error)
	MarkProcessed(ctx context.Context, gameID, method string, results []domain.MatchResult, at time.Time) error
	Stats(ctx context.Context) (domain.StoreStats, error)
}
