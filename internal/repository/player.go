package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"league-elo/internal/domain"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const playerColumns = `name, elo, total_kills, total_assists, total_deaths, total_gold,
	total_wins, total_losses, games, avg_kills, avg_assists, avg_deaths, avg_gold,
	win_loss, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*domain.RatingRecord, error) {
	var p domain.RatingRecord
	err := row.Scan(
		&p.Name, &p.Rating, &p.TotalKills, &p.TotalAssists, &p.TotalDeaths, &p.TotalGold,
		&p.TotalWins, &p.TotalLosses, &p.Games, &p.AvgKills, &p.AvgAssists, &p.AvgDeaths, &p.AvgGold,
		&p.WinLoss, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) Load(ctx context.Context, name string) (*domain.RatingRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE name = ?`, name)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", name, ErrNotFound)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("player", name).Msg("failed to get player")
		return nil, fmt.Errorf("failed to get player %s: %w", name, err)
	}

	if p.RatingHistory, err = ratingHistory(ctx, r.db, name); err != nil {
		return nil, err
	}
	if p.PerformanceHistory, err = performanceHistory(ctx, r.db, name); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlayerRepository) Save(ctx context.Context, record *domain.RatingRecord) error {
	return r.SaveAll(ctx, []*domain.RatingRecord{record})
}

// SaveAll upserts every record and its new history rows in one transaction.
func (r *PlayerRepository) SaveAll(ctx context.Context, records []*domain.RatingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO players (`+playerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				elo = excluded.elo,
				total_kills = excluded.total_kills,
				total_assists = excluded.total_assists,
				total_deaths = excluded.total_deaths,
				total_gold = excluded.total_gold,
				total_wins = excluded.total_wins,
				total_losses = excluded.total_losses,
				games = excluded.games,
				avg_kills = excluded.avg_kills,
				avg_assists = excluded.avg_assists,
				avg_deaths = excluded.avg_deaths,
				avg_gold = excluded.avg_gold,
				win_loss = excluded.win_loss,
				updated_at = excluded.updated_at`,
			p.Name, p.Rating, p.TotalKills, p.TotalAssists, p.TotalDeaths, p.TotalGold,
			p.TotalWins, p.TotalLosses, p.Games, p.AvgKills, p.AvgAssists, p.AvgDeaths, p.AvgGold,
			p.WinLoss, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert player %s: %w", p.Name, err)
		}

		if err := insertHistory(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit players: %w", err)
	}

	r.logger.Debug().Int("count", len(records)).Msg("players saved")
	return nil
}

// List returns players with at least minGames games, highest rating first.
func (r *PlayerRepository) List(ctx context.Context, minGames int) ([]domain.RatingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE games >= ? ORDER BY elo DESC, name ASC`, minGames)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]domain.RatingRecord, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}
