package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"league-elo/internal/api"
	"league-elo/internal/config"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
	"league-elo/internal/gamefile"
	"league-elo/internal/repository"
)

// MatchSource is the subset of the Riot API the fetcher needs.
type MatchSource interface {
	Enabled() bool
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*api.AccountResponse, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*api.MatchResponse, error)
	GetRateLimitInfo() api.RateLimitInfo
}

type FetchService struct {
	riot   MatchSource
	games  repository.GameStore
	cfg    *config.Config
	logger zerolog.Logger
}

func NewFetchService(riot *api.RiotClient, games repository.GameStore, cfg *config.Config, logger zerolog.Logger) *FetchService {
	return newFetchService(riot, games, cfg, logger)
}

func newFetchService(riot MatchSource, games repository.GameStore, cfg *config.Config, logger zerolog.Logger) *FetchService {
	return &FetchService{riot: riot, games: games, cfg: cfg, logger: logger}
}

// RateLimit reports the last rate limit headers seen from Riot, or nil when
// fetching is disabled.
func (s *FetchService) RateLimit() *api.RateLimitInfo {
	if !s.riot.Enabled() {
		return nil
	}
	info := s.riot.GetRateLimitInfo()
	return &info
}

type FetchResult struct {
	Puuid string        `json:"puuid"`
	Games []domain.Game `json:"games"`
}

// FetchByRiotID downloads a player's most recent matches and stores them as
// pending games, oldest first. Match details are fetched concurrently.
func (s *FetchService) FetchByRiotID(ctx context.Context, gameName, tagLine string, count int) (*FetchResult, error) {
	if !s.riot.Enabled() {
		return nil, api.ErrRiotDisabled
	}
	if count <= 0 {
		count = constants.RiotDefaultCount
	}
	count = min(count, constants.RiotMaxCount)

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	account, err := s.riot.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		s.logger.Error().Err(err).Str("game_name", gameName).Str("tag_line", tagLine).Msg("failed to resolve riot id")
		return nil, fmt.Errorf("failed to resolve riot id %s#%s: %w", gameName, tagLine, err)
	}

	ids, err := s.riot.GetMatchIDs(ctx, account.Puuid, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	s.logger.Info().Str("puuid", account.Puuid).Int("match_count", len(ids)).Msg("fetching match details")

	matches := make([]*api.MatchResponse, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.RiotFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := s.riot.GetMatch(gCtx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch match %s: %w", id, err)
			}
			matches[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("puuid", account.Puuid).Msg("failed to fetch match details")
		return nil, err
	}

	games := make([]domain.Game, 0, len(matches))
	for _, m := range matches {
		games = append(games, *m.Game())
	}
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].StartedAt.Equal(games[j].StartedAt) {
			return games[i].StartedAt.Before(games[j].StartedAt)
		}
		return games[i].GameID < games[j].GameID
	})

	for i := range games {
		if err := s.games.Save(ctx, &games[i]); err != nil {
			return nil, err
		}
		if s.cfg.GamesDir != "" {
			if _, err := gamefile.Write(s.cfg.GamesDir, games[i].GameID, games[i].Participants); err != nil {
				s.logger.Warn().Err(err).Str("game_id", games[i].GameID).Msg("failed to write game files")
			}
		}
	}

	s.logger.Info().Str("puuid", account.Puuid).Int("stored", len(games)).Msg("matches stored")
	return &FetchResult{Puuid: account.Puuid, Games: games}, nil
}
