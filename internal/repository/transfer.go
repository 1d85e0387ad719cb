package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type TransferSummary struct {
	Players int `json:"players"`
	Games   int `json:"games"`
}

// Transfer copies every player record and game from one set of stores into
// another, typically between drivers. The target is expected to be empty.
func Transfer(ctx context.Context, from, to *Stores, logger zerolog.Logger) (*TransferSummary, error) {
	logger.Info().Str("from", from.Driver).Str("to", to.Driver).Msg("transferring data")

	players, err := from.Ratings.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	summary := &TransferSummary{}
	for _, p := range players {
		rec, err := from.Ratings.Load(ctx, p.Name)
		if err != nil {
			return summary, fmt.Errorf("failed to load player %s: %w", p.Name, err)
		}
		// ids are store-local
		for i := range rec.RatingHistory {
			rec.RatingHistory[i].ID = ""
		}
		for i := range rec.PerformanceHistory {
			rec.PerformanceHistory[i].ID = ""
		}
		if err := to.Ratings.Save(ctx, rec); err != nil {
			return summary, fmt.Errorf("failed to save player %s: %w", p.Name, err)
		}
		summary.Players++
	}

	games, err := from.Games.List(ctx)
	if err != nil {
		return summary, err
	}
	for i := range games {
		g := &games[i]
		if err := to.Games.Save(ctx, g); err != nil {
			return summary, fmt.Errorf("failed to save game %s: %w", g.GameID, err)
		}
		if g.ProcessedAt != nil {
			if err := to.Games.MarkProcessed(ctx, g.GameID, g.Method, g.Results, *g.ProcessedAt); err != nil {
				return summary, fmt.Errorf("failed to mark game %s: %w", g.GameID, err)
			}
		}
		summary.Games++
	}

	logger.Info().Int("players", summary.Players).Int("games", summary.Games).Msg("transfer complete")
	return summary, nil
}
