package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-elo/internal/config"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
	"league-elo/internal/gamefile"
	"league-elo/internal/ledger"
	"league-elo/internal/rating"
	"league-elo/internal/repository"
)

// MatchService runs stored games through the rating engine and commits the
// results. Games are processed one at a time.
type MatchService struct {
	engine *rating.Engine
	ledger *ledger.Ledger
	games  repository.GameStore
	cfg    *config.Config
	logger zerolog.Logger
	now    func() time.Time
}

func NewMatchService(engine *rating.Engine, ledger *ledger.Ledger, games repository.GameStore, cfg *config.Config, logger zerolog.Logger) *MatchService {
	return &MatchService{
		engine: engine,
		ledger: ledger,
		games:  games,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

type ProcessResult struct {
	GameID  string               `json:"gameId"`
	Method  string               `json:"method"`
	Results []domain.MatchResult `json:"results"`
}

type BatchItem struct {
	GameID  string               `json:"gameId"`
	Method  string               `json:"method,omitempty"`
	Results []domain.MatchResult `json:"results,omitempty"`
	Err     error                `json:"-"`
	Error   string               `json:"error,omitempty"`
}

type ImportSummary struct {
	Imported int      `json:"imported"`
	Failed   []string `json:"failed,omitempty"`
}

// ProcessGame rates a stored game. A game already processed is rejected with
// ErrAlreadyProcessed unless force is set; forcing applies it again.
func (s *MatchService) ProcessGame(ctx context.Context, gameID string, force bool) (*ProcessResult, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if game.ProcessedAt != nil && !force {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrAlreadyProcessed)
	}
	return s.process(ctx, game)
}

// ProcessParticipants stores a game submitted directly and rates it.
func (s *MatchService) ProcessParticipants(ctx context.Context, gameID string, participants []domain.Participant, force bool) (*ProcessResult, error) {
	if len(participants) == 0 {
		return nil, domain.ErrNoParticipants
	}

	existing, err := s.games.Get(ctx, gameID)
	switch {
	case err == nil && existing.ProcessedAt != nil && !force:
		return nil, fmt.Errorf("game %s: %w", gameID, ErrAlreadyProcessed)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	game := &domain.Game{
		GameID:       gameID,
		Source:       domain.SourceAPI,
		StartedAt:    s.now().UTC(),
		Participants: participants,
	}
	if err := s.games.Save(ctx, game); err != nil {
		return nil, err
	}
	return s.process(ctx, game)
}

// ProcessBatch rates the given games in order. A failing game does not stop
// the batch.
func (s *MatchService) ProcessBatch(ctx context.Context, gameIDs []string, force bool) []BatchItem {
	items := make([]BatchItem, 0, len(gameIDs))
	for _, id := range gameIDs {
		res, err := s.ProcessGame(ctx, id, force)
		items = append(items, s.batchItem(id, res, err))
	}
	return items
}

// ProcessPending rates every unprocessed stored game, oldest first.
func (s *MatchService) ProcessPending(ctx context.Context) ([]BatchItem, error) {
	pending, err := s.games.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending games: %w", err)
	}

	s.logger.Info().Int("count", len(pending)).Msg("processing pending games")

	items := make([]BatchItem, 0, len(pending))
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		res, err := s.process(ctx, &pending[i])
		items = append(items, s.batchItem(pending[i].GameID, res, err))
	}
	return items, nil
}

func (s *MatchService) batchItem(gameID string, res *ProcessResult, err error) BatchItem {
	if err != nil {
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("failed to process game")
		return BatchItem{GameID: gameID, Err: err, Error: err.Error()}
	}
	return BatchItem{GameID: gameID, Method: res.Method, Results: res.Results}
}

// Compare runs every rating method over a game without persisting anything.
// With no participants given, the stored game is used.
func (s *MatchService) Compare(ctx context.Context, gameID string, participants []domain.Participant) (*rating.Outcome, error) {
	if len(participants) == 0 {
		game, err := s.games.Get(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to load game: %w", err)
		}
		participants = game.Participants
	}

	ratings := s.ledger.CurrentRatings(ctx, names(participants))
	return s.engine.Compare(participants, ratings, s.cfg.Rating)
}

// Import stores every game directory under dir as a pending game. Games that
// already exist keep their processed state.
func (s *MatchService) Import(ctx context.Context, dir string) (*ImportSummary, error) {
	ids, err := gamefile.List(dir)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	for _, id := range ids {
		if _, err := s.ImportGame(ctx, dir, id); err != nil {
			s.logger.Warn().Err(err).Str("game_id", id).Msg("failed to import game")
			summary.Failed = append(summary.Failed, id)
			continue
		}
		summary.Imported++
	}

	s.logger.Info().
		Str("dir", dir).
		Int("imported", summary.Imported).
		Int("failed", len(summary.Failed)).
		Msg("games imported")
	return summary, nil
}

// ImportGame stores the single game directory dir/game_<gameID>.
func (s *MatchService) ImportGame(ctx context.Context, dir, gameID string) (*domain.Game, error) {
	game, err := gamefile.Read(dir, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.games.Save(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *MatchService) process(ctx context.Context, game *domain.Game) (*ProcessResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.GameTimeout)
	defer cancel()

	ratings := s.ledger.CurrentRatings(ctx, names(game.Participants))

	outcome, err := s.engine.Compute(game.Participants, ratings, s.cfg.Rating)
	if err != nil {
		return nil, fmt.Errorf("failed to compute game %s: %w", game.GameID, err)
	}

	if _, err := s.ledger.Commit(ctx, game.GameID, game.Participants, outcome.Results); err != nil {
		return nil, err
	}

	if err := s.games.MarkProcessed(ctx, game.GameID, outcome.Method, outcome.Results, s.now().UTC()); err != nil {
		s.logger.Error().Err(err).Str("game_id", game.GameID).Msg("ratings committed but game not marked processed")
		return nil, err
	}

	s.logger.Info().
		Str("game_id", game.GameID).
		Str("method", outcome.Method).
		Int("participants", len(game.Participants)).
		Msg("game processed")

	return &ProcessResult{GameID: game.GameID, Method: outcome.Method, Results: outcome.Results}, nil
}

func names(participants []domain.Participant) []string {
	out := make([]string, len(participants))
	for i, p := range participants {
		out[i] = p.Name()
	}
	return out
}
