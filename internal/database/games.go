package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pegboard/cribbage/internal/models"
)

// CreateGame inserts a named game definition.
func (db *DB) CreateGame(ctx context.Context, name string) (models.Game, error) {
	var g models.Game
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO games (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		return models.Game{}, fmt.Errorf("create game %q: %w", name, err)
	}
	return g, nil
}

// FindGameByName looks a game definition up by unique name.
func (db *DB) FindGameByName(ctx context.Context, name string) (models.Game, error) {
	var g models.Game
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM games WHERE name = $1`,
		name,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Game{}, fmt.Errorf("game %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Game{}, fmt.Errorf("find game %q: %w", name, err)
	}
	return g, nil
}

// CreateGameHistory opens a new playthrough of the given game.
func (db *DB) CreateGameHistory(ctx context.Context, gameID int64) (models.GameHistory, error) {
	var gh models.GameHistory
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO game_histories (game_id) VALUES ($1)
		 RETURNING id, game_id, finished, created_at`,
		gameID,
	).Scan(&gh.ID, &gh.GameID, &gh.Finished, &gh.CreatedAt)
	if err != nil {
		return models.GameHistory{}, fmt.Errorf("create game history: %w", err)
	}
	return gh, nil
}

// FindGameHistory looks a playthrough up by ID.
func (db *DB) FindGameHistory(ctx context.Context, id int64) (models.GameHistory, error) {
	var gh models.GameHistory
	err := db.Pool.QueryRow(ctx,
		`SELECT id, game_id, finished, created_at FROM game_histories WHERE id = $1`,
		id,
	).Scan(&gh.ID, &gh.GameID, &gh.Finished, &gh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GameHistory{}, fmt.Errorf("game history %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.GameHistory{}, fmt.Errorf("find game history %d: %w", id, err)
	}
	return gh, nil
}

// FindMostRecentGameHistory returns the latest playthrough of a game.
func (db *DB) FindMostRecentGameHistory(ctx context.Context, gameID int64) (models.GameHistory, error) {
	var gh models.GameHistory
	err := db.Pool.QueryRow(ctx,
		`SELECT id, game_id, finished, created_at FROM game_histories
		 WHERE game_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		gameID,
	).Scan(&gh.ID, &gh.GameID, &gh.Finished, &gh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GameHistory{}, fmt.Errorf("game %d histories: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return models.GameHistory{}, fmt.Errorf("find most recent history: %w", err)
	}
	return gh, nil
}

// EndGameHistory marks a playthrough finished.
func (db *DB) EndGameHistory(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE game_histories SET finished = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("end game history %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game history %d: %w", id, ErrNotFound)
	}
	return nil
}
