package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pegboard/cribbage/internal/models"
)

// CreateHandHistory inserts one hand row.
func (db *DB) CreateHandHistory(ctx context.Context, h models.HandHistory) (models.HandHistory, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO hand_histories (player_id, game_history_id, hand, cut, is_crib, played, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		h.PlayerID, h.GameHistoryID, h.Hand, h.Cut, h.Crib, h.Played, h.Points,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return models.HandHistory{}, fmt.Errorf("create hand history: %w", err)
	}
	return h, nil
}

// BulkCreateHandHistories inserts a round's rows as one transaction.
func (db *DB) BulkCreateHandHistories(ctx context.Context, hands []models.HandHistory) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin hand history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, h := range hands {
		if _, err := tx.Exec(ctx,
			`INSERT INTO hand_histories (player_id, game_history_id, hand, cut, is_crib, played, points)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			h.PlayerID, h.GameHistoryID, h.Hand, h.Cut, h.Crib, h.Played, h.Points,
		); err != nil {
			return fmt.Errorf("insert hand history for player %d: %w", h.PlayerID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit hand histories: %w", err)
	}
	return nil
}

// FindLastHand returns a player's most recent kept-hand row in a history,
// carrying their running total at the time the row was last stamped. Crib
// rows are excluded: their points are never restamped after counting.
func (db *DB) FindLastHand(ctx context.Context, playerID, gameHistoryID int64) (models.HandHistory, error) {
	var h models.HandHistory
	err := db.Pool.QueryRow(ctx,
		`SELECT id, player_id, game_history_id, hand, cut, is_crib, played, points, created_at
		 FROM hand_histories
		 WHERE player_id = $1 AND game_history_id = $2 AND NOT is_crib
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		playerID, gameHistoryID,
	).Scan(&h.ID, &h.PlayerID, &h.GameHistoryID, &h.Hand, &h.Cut, &h.Crib, &h.Played, &h.Points, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.HandHistory{}, fmt.Errorf("last hand %d/%d: %w", playerID, gameHistoryID, ErrNotFound)
	}
	if err != nil {
		return models.HandHistory{}, fmt.Errorf("find last hand: %w", err)
	}
	return h, nil
}

// HasUnplayedHands reports whether a history holds rows from an interrupted
// round.
func (db *DB) HasUnplayedHands(ctx context.Context, gameHistoryID int64) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hand_histories WHERE game_history_id = $1 AND NOT played)`,
		gameHistoryID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unplayed hands: %w", err)
	}
	return exists, nil
}

// UnplayedHands returns the interrupted round's rows, crib included, oldest
// first.
func (db *DB) UnplayedHands(ctx context.Context, gameHistoryID int64) ([]models.HandHistory, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, player_id, game_history_id, hand, cut, is_crib, played, points, created_at
		 FROM hand_histories
		 WHERE game_history_id = $1 AND NOT played
		 ORDER BY created_at, id`,
		gameHistoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("load unplayed hands: %w", err)
	}
	defer rows.Close()
	return scanHandHistories(rows)
}

// LastPlayedCrib returns the most recent counted crib row, used to derive the
// next dealer when no round is in flight.
func (db *DB) LastPlayedCrib(ctx context.Context, gameHistoryID int64) (models.HandHistory, error) {
	var h models.HandHistory
	err := db.Pool.QueryRow(ctx,
		`SELECT id, player_id, game_history_id, hand, cut, is_crib, played, points, created_at
		 FROM hand_histories
		 WHERE game_history_id = $1 AND is_crib AND played
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		gameHistoryID,
	).Scan(&h.ID, &h.PlayerID, &h.GameHistoryID, &h.Hand, &h.Cut, &h.Crib, &h.Played, &h.Points, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.HandHistory{}, fmt.Errorf("last played crib for history %d: %w", gameHistoryID, ErrNotFound)
	}
	if err != nil {
		return models.HandHistory{}, fmt.Errorf("find last played crib: %w", err)
	}
	return h, nil
}

// MarkRoundPlayed flips the interrupted round's rows to played and records
// each owner's post-count total.
func (db *DB) MarkRoundPlayed(ctx context.Context, gameHistoryID int64, points map[int64]int) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin mark played tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE hand_histories SET played = TRUE WHERE game_history_id = $1 AND NOT played`,
		gameHistoryID,
	); err != nil {
		return fmt.Errorf("mark round played: %w", err)
	}
	for pid, pts := range points {
		if _, err := tx.Exec(ctx,
			`UPDATE hand_histories SET points = $1
			 WHERE game_history_id = $2 AND player_id = $3
			 AND id = (SELECT id FROM hand_histories
			           WHERE game_history_id = $2 AND player_id = $3 AND NOT is_crib
			           ORDER BY created_at DESC, id DESC LIMIT 1)`,
			pts, gameHistoryID, pid,
		); err != nil {
			return fmt.Errorf("record points for player %d: %w", pid, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit mark played: %w", err)
	}
	return nil
}

// AllHands returns every hand row for a history, oldest first.
func (db *DB) AllHands(ctx context.Context, gameHistoryID int64) ([]models.HandHistory, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, player_id, game_history_id, hand, cut, is_crib, played, points, created_at
		 FROM hand_histories WHERE game_history_id = $1
		 ORDER BY created_at, id`,
		gameHistoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("load hand histories: %w", err)
	}
	defer rows.Close()
	return scanHandHistories(rows)
}

func scanHandHistories(rows pgx.Rows) ([]models.HandHistory, error) {
	var out []models.HandHistory
	for rows.Next() {
		var h models.HandHistory
		if err := rows.Scan(&h.ID, &h.PlayerID, &h.GameHistoryID, &h.Hand, &h.Cut,
			&h.Crib, &h.Played, &h.Points, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hand history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hand histories: %w", err)
	}
	return out, nil
}
