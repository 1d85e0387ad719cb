package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-elo/internal/domain"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const gameColumns = `game_id, match_id, source, game_mode, started_at, duration_seconds,
	participants, results, method, processed_at, created_at, updated_at`

func scanGame(row rowScanner) (*domain.Game, error) {
	var (
		g            domain.Game
		participants string
		results      sql.NullString
		processedAt  sql.NullTime
	)
	err := row.Scan(
		&g.GameID, &g.MatchID, &g.Source, &g.GameMode, &g.StartedAt, &g.DurationSeconds,
		&participants, &results, &g.Method, &processedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(participants), &g.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants of game %s: %w", g.GameID, err)
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &g.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results of game %s: %w", g.GameID, err)
		}
	}
	if processedAt.Valid {
		t := processedAt.Time
		g.ProcessedAt = &t
	}
	return &g, nil
}

func (r *GameRepository) Save(ctx context.Context, game *domain.Game) error {
	participants, err := json.Marshal(game.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants of game %s: %w", game.GameID, err)
	}

	now := time.Now().UTC()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now

	var processedAt sql.NullTime
	if game.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *game.ProcessedAt, Valid: true}
	}
	var results sql.NullString
	if len(game.Results) > 0 {
		data, err := json.Marshal(game.Results)
		if err != nil {
			return fmt.Errorf("failed to encode results of game %s: %w", game.GameID, err)
		}
		results = sql.NullString{String: string(data), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO UPDATE SET
			match_id = excluded.match_id,
			source = excluded.source,
			game_mode = excluded.game_mode,
			started_at = excluded.started_at,
			duration_seconds = excluded.duration_seconds,
			participants = excluded.participants,
			updated_at = excluded.updated_at`,
		game.GameID, game.MatchID, game.Source, game.GameMode, game.StartedAt.UTC(), game.DurationSeconds,
		string(participants), results, game.Method, processedAt, game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("game_id", game.GameID).Msg("failed to save game")
		return fmt.Errorf("failed to save game %s: %w", game.GameID, err)
	}
	return nil
}

func (r *GameRepository) Get(ctx context.Context, gameID string) (*domain.Game, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE game_id = ?`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return g, nil
}

func (r *GameRepository) List(ctx context.Context) ([]domain.Game, error) {
	return r.query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY started_at ASC, game_id ASC`)
}

// ListPending returns unprocessed games, oldest first.
func (r *GameRepository) ListPending(ctx context.Context) ([]domain.Game, error) {
	return r.query(ctx, `SELECT `+gameColumns+` FROM games WHERE processed_at IS NULL ORDER BY started_at ASC, game_id ASC`)
}

func (r *GameRepository) query(ctx context.Context, query string, args ...any) ([]domain.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]domain.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func (r *GameRepository) MarkProcessed(ctx context.Context, gameID, method string, results []domain.MatchResult, at time.Time) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results of game %s: %w", gameID, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE games SET results = ?, method = ?, processed_at = ?, updated_at = ?
		WHERE game_id = ?`,
		string(data), method, at, at, gameID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game %s processed: %w", gameID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark game %s processed: %w", gameID, err)
	}
	if n == 0 {
		return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}

	r.logger.Debug().Str("game_id", gameID).Str("method", method).Msg("game marked processed")
	return nil
}

func (r *GameRepository) Stats(ctx context.Context) (domain.StoreStats, error) {
	var s domain.StoreStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM games),
			(SELECT COUNT(*) FROM games WHERE processed_at IS NOT NULL)`,
	).Scan(&s.Players, &s.Games, &s.ProcessedGames)
	if err != nil {
		return s, fmt.Errorf("failed to get stats: %w", err)
	}
	s.PendingGames = s.Games - s.ProcessedGames
	return s, nil
}
