package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pegboard/cribbage/internal/models"
)

// CreatePlayer inserts a player and returns the stored record.
func (db *DB) CreatePlayer(ctx context.Context, name string) (models.Player, error) {
	var p models.Player
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO players (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return models.Player{}, fmt.Errorf("create player %q: %w", name, err)
	}
	return p, nil
}

// FindPlayerByName looks a player up by unique name.
func (db *DB) FindPlayerByName(ctx context.Context, name string) (models.Player, error) {
	var p models.Player
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM players WHERE name = $1`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Player{}, fmt.Errorf("player %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("find player %q: %w", name, err)
	}
	return p, nil
}

// FindPlayer looks a player up by ID.
func (db *DB) FindPlayer(ctx context.Context, id int64) (models.Player, error) {
	var p models.Player
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM players WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Player{}, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("find player %d: %w", id, err)
	}
	return p, nil
}
