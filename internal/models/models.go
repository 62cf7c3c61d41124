// Package models holds the persisted record types shared by the database
// stores and the session registry.
package models

import (
	"time"

	"github.com/pegboard/cribbage/engine"
)

// Player is a registered participant, keyed by gateway name.
type Player struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Game is a named game definition ("cribbage"). Histories hang off it.
type Game struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// GameHistory is one playthrough of a Game. Finished is set when a win is
// recorded or the table is abandoned.
type GameHistory struct {
	ID        int64
	GameID    int64
	Finished  bool
	CreatedAt time.Time
}

// GameHistoryPlayer associates a player with a game history. Seat preserves
// the seating order the game began with.
type GameHistoryPlayer struct {
	ID            int64
	PlayerID      int64
	GameHistoryID int64
	Seat          int
}

// HandHistory is one persisted hand within a round: the four kept cards (or
// the crib), the shared cut, and the owner's running total at write time.
// Played flips when the round the hand belongs to has been counted.
type HandHistory struct {
	ID            int64
	PlayerID      int64
	GameHistoryID int64
	Hand          string // hyphen-delimited short forms, e.g. "7h-3s-10c-kh"
	Cut           string
	Crib          bool
	Played        bool
	Points        int
	CreatedAt     time.Time
}

// WinLossHistory is one player's result for one finished game history.
type WinLossHistory struct {
	ID            int64
	PlayerID      int64
	GameHistoryID int64
	Won           bool
	CreatedAt     time.Time
}

// WinLossRecord is the aggregate a player asks for.
type WinLossRecord struct {
	PlayerName string
	Wins       int
	Losses     int
}

// EncodeHand renders cards in the persisted wire form.
func EncodeHand(cards []engine.Card) string {
	return engine.FormatCards(cards)
}

// DecodeHand parses the persisted wire form back into cards.
func DecodeHand(text string) ([]engine.Card, error) {
	return engine.ParseCards(text)
}
