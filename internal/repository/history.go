package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"league-elo/internal/constants"
	"league-elo/internal/domain"
)

// insertHistory writes the entries of p that have no id yet and drops rows
// beyond the newest constants.HistoryLimit.
func insertHistory(ctx context.Context, tx *sql.Tx, p *domain.RatingRecord) error {
	for i := range p.RatingHistory {
		e := &p.RatingHistory[i]
		if e.ID != "" {
			continue
		}
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rating_history (id, player_name, seq, game_id, old_elo, new_elo, change, method, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Name, e.Seq, e.GameID, e.OldRating, e.NewRating, e.Delta, e.Method, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rating history for %s: %w", p.Name, err)
		}
		e.ID = id
	}

	for i := range p.PerformanceHistory {
		e := &p.PerformanceHistory[i]
		if e.ID != "" {
			continue
		}
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		var laneRank sql.NullInt64
		if e.LaneRank != nil {
			laneRank = sql.NullInt64{Int64: int64(*e.LaneRank), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO performance_history (id, player_name, seq, game_id, performance_score, role, lane_rank, win, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Name, e.Seq, e.GameID, e.PerformanceScore, e.Role, laneRank, e.Win, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert performance history for %s: %w", p.Name, err)
		}
		e.ID = id
	}

	for _, table := range []string{"rating_history", "performance_history"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			DELETE FROM %[1]s WHERE player_name = ? AND id NOT IN (
				SELECT id FROM %[1]s WHERE player_name = ? ORDER BY seq DESC, created_at DESC LIMIT ?
			)`, table),
			p.Name, p.Name, constants.HistoryLimit,
		)
		if err != nil {
			return fmt.Errorf("failed to trim %s for %s: %w", table, p.Name, err)
		}
	}
	return nil
}

func ratingHistory(ctx context.Context, db *sql.DB, name string) ([]domain.RatingHistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, seq, game_id, old_elo, new_elo, change, method, created_at
		FROM rating_history WHERE player_name = ? ORDER BY seq ASC, created_at ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating history for %s: %w", name, err)
	}
	defer rows.Close()

	entries := make([]domain.RatingHistoryEntry, 0)
	for rows.Next() {
		var e domain.RatingHistoryEntry
		if err := rows.Scan(&e.ID, &e.Seq, &e.GameID, &e.OldRating, &e.NewRating, &e.Delta, &e.Method, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan rating history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func performanceHistory(ctx context.Context, db *sql.DB, name string) ([]domain.PerformanceHistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, seq, game_id, performance_score, role, lane_rank, win, created_at
		FROM performance_history WHERE player_name = ? ORDER BY seq ASC, created_at ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance history for %s: %w", name, err)
	}
	defer rows.Close()

	entries := make([]domain.PerformanceHistoryEntry, 0)
	for rows.Next() {
		var e domain.PerformanceHistoryEntry
		var laneRank sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Seq, &e.GameID, &e.PerformanceScore, &e.Role, &laneRank, &e.Win, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan performance history: %w", err)
		}
		if laneRank.Valid {
			rank := int(laneRank.Int64)
			e.LaneRank = &rank
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
