// Package game hosts the session registry: it maps players to live games,
// owns the shared lobby, runs the gateway command verbs against the rules
// engine, and rebuilds interrupted games from persisted history.
package game

import (
	"context"
	"errors"

	"github.com/pegboard/cribbage/internal/models"
)

// ErrNotFound is the missing-row sentinel stores wrap. Owned here so the
// registry stays independent of any concrete driver.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator contract the registry depends on.
// *database.DB satisfies it; tests substitute an in-memory fake. Lookups
// that match nothing return an error wrapping ErrNotFound.
type Store interface {
	CreatePlayer(ctx context.Context, name string) (models.Player, error)
	FindPlayerByName(ctx context.Context, name string) (models.Player, error)
	FindPlayer(ctx context.Context, id int64) (models.Player, error)

	CreateGame(ctx context.Context, name string) (models.Game, error)
	FindGameByName(ctx context.Context, name string) (models.Game, error)

	CreateGameHistory(ctx context.Context, gameID int64) (models.GameHistory, error)
	FindGameHistory(ctx context.Context, id int64) (models.GameHistory, error)
	EndGameHistory(ctx context.Context, id int64) error

	CreateAssociations(ctx context.Context, playerIDs []int64, gameHistoryID int64) error
	FindAssociation(ctx context.Context, playerID, gameHistoryID int64) (models.GameHistoryPlayer, error)
	FindAssociations(ctx context.Context, gameHistoryID int64) ([]models.GameHistoryPlayer, error)
	FindUnfinished(ctx context.Context, playerID int64) ([]int64, error)

	BulkCreateHandHistories(ctx context.Context, hands []models.HandHistory) error
	FindLastHand(ctx context.Context, playerID, gameHistoryID int64) (models.HandHistory, error)
	HasUnplayedHands(ctx context.Context, gameHistoryID int64) (bool, error)
	UnplayedHands(ctx context.Context, gameHistoryID int64) ([]models.HandHistory, error)
	LastPlayedCrib(ctx context.Context, gameHistoryID int64) (models.HandHistory, error)
	MarkRoundPlayed(ctx context.Context, gameHistoryID int64, points map[int64]int) error

	BulkCreateWinLoss(ctx context.Context, playerIDs []int64, gameHistoryID int64, won map[int64]bool) error
	GetWinLoss(ctx context.Context, playerName string) (models.WinLossRecord, error)
}
