package fx

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"league-elo/internal/api"
	"league-elo/internal/config"
	"league-elo/internal/ledger"
	"league-elo/internal/logger"
	"league-elo/internal/rating"
	"league-elo/internal/repository"
	"league-elo/internal/server"
	"league-elo/internal/service"
)

// ProvideStores opens the configured database and closes it on shutdown.
func ProvideStores(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*repository.Stores, error) {
	stores, err := repository.OpenConfigured(cfg, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := stores.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
				return err
			}
			return nil
		},
	})
	return stores, nil
}

func ProvideRatings(stores *repository.Stores) repository.RatingStore {
	return stores.Ratings
}

func ProvideGames(stores *repository.Stores) repository.GameStore {
	return stores.Games
}

func ProvideLedger(ratings repository.RatingStore, cfg *config.Config, logger zerolog.Logger) *ledger.Ledger {
	return ledger.New(ratings, cfg, logger)
}

// Core is everything but the HTTP layer; the CLI runs on it alone.
var Core = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// storage
	fx.Provide(ProvideStores),
	fx.Provide(ProvideRatings),
	fx.Provide(ProvideGames),
	// rating
	fx.Provide(rating.NewEngine),
	fx.Provide(ProvideLedger),
	// api client
	fx.Provide(api.NewRiotClient),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewFetchService),
	fx.Provide(service.NewPlayerService),
)

var Module = fx.Options(
	Core,
	fx.Provide(server.NewRouter),
)
