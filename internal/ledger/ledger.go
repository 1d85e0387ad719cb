// Package ledger applies computed match results to persisted player records.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-elo/internal/config"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
)

// Store persists rating records. Load returns domain.ErrNotFound for a player
// that has never been saved.
type Store interface {
	Load(ctx context.Context, name string) (*domain.RatingRecord, error)
	Save(ctx context.Context, record *domain.RatingRecord) error
}

// BatchStore is implemented by stores that can save a whole match atomically.
type BatchStore interface {
	Store
	SaveAll(ctx context.Context, records []*domain.RatingRecord) error
}

type Ledger struct {
	store  Store
	base   int
	logger zerolog.Logger
	now    func() time.Time
}

func New(store Store, cfg *config.Config, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		base:   cfg.Rating.BaseElo,
		logger: logger,
		now:    time.Now,
	}
}

// CurrentRatings returns the stored rating for each name. Players that are new,
// or whose record cannot be read, get the base rating.
func (l *Ledger) CurrentRatings(ctx context.Context, names []string) map[string]int {
	ratings := make(map[string]int, len(names))
	for _, name := range names {
		rec, err := l.store.Load(ctx, name)
		switch {
		case err == nil:
			ratings[name] = rec.Rating
		case errors.Is(err, domain.ErrNotFound):
			ratings[name] = l.base
		default:
			l.logger.Warn().Err(err).Str("player", name).Msg("failed to load player, using base rating")
			ratings[name] = l.base
		}
	}
	return ratings
}

// Commit folds one match into every participant's record. results must be
// indexed like participants. The returned records are distinct, in first
// appearance order. Any storage error aborts the commit.
func (l *Ledger) Commit(ctx context.Context, gameID string, participants []domain.Participant, results []domain.MatchResult) ([]*domain.RatingRecord, error) {
	if len(participants) != len(results) {
		return nil, fmt.Errorf("commit game %s: %d participants but %d results", gameID, len(participants), len(results))
	}

	now := l.now().UTC()
	// a name can appear twice in one match; both results fold into one record
	byName := make(map[string]*domain.RatingRecord, len(participants))
	records := make([]*domain.RatingRecord, 0, len(participants))
	for i, p := range participants {
		r := results[i]
		rec, ok := byName[r.Name]
		if !ok {
			var err error
			rec, err = l.loadOrCreate(ctx, r.Name, now)
			if err != nil {
				return nil, fmt.Errorf("commit game %s: %w", gameID, err)
			}
			byName[r.Name] = rec
			records = append(records, rec)
		}
		Apply(rec, gameID, p, r, now)
	}

	if err := l.save(ctx, records); err != nil {
		return nil, fmt.Errorf("commit game %s: %w", gameID, err)
	}

	for _, r := range results {
		l.logger.Info().
			Str("game_id", gameID).
			Str("player", r.Name).
			Str("method", r.Method).
			Int("old_elo", r.OldRating).
			Int("new_elo", r.NewRating).
			Int("change", r.Delta).
			Msg("rating updated")
	}
	return records, nil
}

func (l *Ledger) loadOrCreate(ctx context.Context, name string, now time.Time) (*domain.RatingRecord, error) {
	rec, err := l.store.Load(ctx, name)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load player %s: %w", name, err)
	}
	return &domain.RatingRecord{
		Name:      name,
		Rating:    l.base,
		WinLoss:   "0:0",
		CreatedAt: now,
	}, nil
}

func (l *Ledger) save(ctx context.Context, records []*domain.RatingRecord) error {
	if bs, ok := l.store.(BatchStore); ok {
		if err := bs.SaveAll(ctx, records); err != nil {
			return fmt.Errorf("save players: %w", err)
		}
		return nil
	}
	for _, rec := range records {
		if err := l.store.Save(ctx, rec); err != nil {
			return fmt.Errorf("save player %s: %w", rec.Name, err)
		}
	}
	return nil
}

// Apply accumulates one match result into rec and trims both histories to the
// newest constants.HistoryLimit entries.
func Apply(rec *domain.RatingRecord, gameID string, p domain.Participant, r domain.MatchResult, at time.Time) {
	rec.TotalKills += p.Kills
	rec.TotalAssists += p.Assists
	rec.TotalDeaths += p.Deaths
	rec.TotalGold += p.GoldEarned
	if r.Win {
		rec.TotalWins++
	} else {
		rec.TotalLosses++
	}
	rec.Games++

	games := float64(rec.Games)
	rec.AvgKills = float64(rec.TotalKills) / games
	rec.AvgAssists = float64(rec.TotalAssists) / games
	rec.AvgDeaths = float64(rec.TotalDeaths) / games
	rec.AvgGold = float64(rec.TotalGold) / games
	rec.WinLoss = fmt.Sprintf("%d:%d", rec.TotalWins, rec.TotalLosses)

	rec.Rating = r.NewRating
	rec.UpdatedAt = at

	rec.RatingHistory = append(rec.RatingHistory, domain.RatingHistoryEntry{
		Seq:       rec.Games,
		GameID:    gameID,
		OldRating: r.OldRating,
		NewRating: r.NewRating,
		Delta:     r.Delta,
		Method:    r.Method,
		Timestamp: at,
	})
	rec.PerformanceHistory = append(rec.PerformanceHistory, domain.PerformanceHistoryEntry{
		Seq:              rec.Games,
		GameID:           gameID,
		PerformanceScore: r.PerformanceScore,
		Role:             r.Role,
		LaneRank:         r.LaneRank,
		Win:              r.Win,
		Timestamp:        at,
	})

	rec.RatingHistory = trim(rec.RatingHistory)
	rec.PerformanceHistory = trim(rec.PerformanceHistory)
}

func trim[T any](entries []T) []T {
	if len(entries) <= constants.HistoryLimit {
		return entries
	}
	return append([]T(nil), entries[len(entries)-constants.HistoryLimit:]...)
}
