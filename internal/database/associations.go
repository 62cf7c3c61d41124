package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pegboard/cribbage/internal/models"
)

// CreateAssociations links players to a game history in seating order. The
// whole batch runs in one transaction so a history never ends up with a
// partial roster.
func (db *DB) CreateAssociations(ctx context.Context, playerIDs []int64, gameHistoryID int64) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin associations tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for seat, pid := range playerIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_history_players (player_id, game_history_id, seat)
			 VALUES ($1, $2, $3)`,
			pid, gameHistoryID, seat,
		); err != nil {
			return fmt.Errorf("associate player %d with history %d: %w", pid, gameHistoryID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit associations: %w", err)
	}
	return nil
}

// FindAssociation returns the association row for one player in one history.
func (db *DB) FindAssociation(ctx context.Context, playerID, gameHistoryID int64) (models.GameHistoryPlayer, error) {
	var a models.GameHistoryPlayer
	err := db.Pool.QueryRow(ctx,
		`SELECT id, player_id, game_history_id, seat FROM game_history_players
		 WHERE player_id = $1 AND game_history_id = $2`,
		playerID, gameHistoryID,
	).Scan(&a.ID, &a.PlayerID, &a.GameHistoryID, &a.Seat)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GameHistoryPlayer{}, fmt.Errorf("association %d/%d: %w", playerID, gameHistoryID, ErrNotFound)
	}
	if err != nil {
		return models.GameHistoryPlayer{}, fmt.Errorf("find association: %w", err)
	}
	return a, nil
}

// FindAssociations returns a history's full roster in seating order.
func (db *DB) FindAssociations(ctx context.Context, gameHistoryID int64) ([]models.GameHistoryPlayer, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, player_id, game_history_id, seat FROM game_history_players
		 WHERE game_history_id = $1 ORDER BY seat`,
		gameHistoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("find associations for history %d: %w", gameHistoryID, err)
	}
	defer rows.Close()

	var out []models.GameHistoryPlayer
	for rows.Next() {
		var a models.GameHistoryPlayer
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.GameHistoryID, &a.Seat); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate associations: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("history %d roster: %w", gameHistoryID, ErrNotFound)
	}
	return out, nil
}

// FindUnfinished lists the unfinished game-history IDs a player belongs to,
// most recent first. Serves the "unfinished games" query.
func (db *DB) FindUnfinished(ctx context.Context, playerID int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT gh.id FROM game_histories gh
		 JOIN game_history_players ghp ON ghp.game_history_id = gh.id
		 WHERE ghp.player_id = $1 AND NOT gh.finished
		 ORDER BY gh.created_at DESC, gh.id DESC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("find unfinished for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unfinished: %w", err)
	}
	return ids, nil
}
