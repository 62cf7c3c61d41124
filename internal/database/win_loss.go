package database

import (
	"context"
	"fmt"

	"github.com/pegboard/cribbage/internal/models"
)

// BulkCreateWinLoss records every participant's result for a finished game
// in one transaction. won holds the winners' player IDs.
func (db *DB) BulkCreateWinLoss(ctx context.Context, playerIDs []int64, gameHistoryID int64, won map[int64]bool) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin win/loss tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, pid := range playerIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO win_loss_histories (player_id, game_history_id, won)
			 VALUES ($1, $2, $3)`,
			pid, gameHistoryID, won[pid],
		); err != nil {
			return fmt.Errorf("record result for player %d: %w", pid, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit win/loss: %w", err)
	}
	return nil
}

// GetWinLoss aggregates a player's lifetime record by name.
func (db *DB) GetWinLoss(ctx context.Context, playerName string) (models.WinLossRecord, error) {
	rec := models.WinLossRecord{PlayerName: playerName}
	err := db.Pool.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE wl.won),
			COUNT(*) FILTER (WHERE NOT wl.won)
		 FROM win_loss_histories wl
		 JOIN players p ON p.id = wl.player_id
		 WHERE p.name = $1`,
		playerName,
	).Scan(&rec.Wins, &rec.Losses)
	if err != nil {
		return models.WinLossRecord{}, fmt.Errorf("win/loss for %q: %w", playerName, err)
	}
	return rec, nil
}
