package engine

import "errors"

// Typed rule and validation errors. Every failed operation returns one of
// these (possibly wrapped with detail) and leaves game state unchanged.
var (
	// ErrInvalidCardSyntax reports unparseable card text.
	ErrInvalidCardSyntax = errors.New("invalid card syntax")

	// ErrPlayerAlreadyInGame reports a duplicate player name on join.
	ErrPlayerAlreadyInGame = errors.New("player already in game")

	// ErrUnknownPlayer reports a player name not seated in the game.
	ErrUnknownPlayer = errors.New("player not in this game")

	// ErrGameAlreadyBegun reports a join or leave after cards were dealt.
	ErrGameAlreadyBegun = errors.New("game has already begun")

	// ErrNotEnoughPlayers reports a begin attempt with fewer than two seats.
	ErrNotEnoughPlayers = errors.New("not enough players")

	// ErrKittyNotReady reports a discard before hands are dealt, or any
	// play-phase verb invoked while the crib is still being formed.
	ErrKittyNotReady = errors.New("kitty not ready")

	// ErrWrongDiscardCount reports a crib contribution of the wrong size.
	ErrWrongDiscardCount = errors.New("wrong number of cards for the crib")

	// ErrAlreadyDiscarded reports a second crib contribution from one player.
	ErrAlreadyDiscarded = errors.New("already threw to the crib")

	// ErrNotNextPlayer reports an action out of turn.
	ErrNotNextPlayer = errors.New("not your turn")

	// ErrPlayerDoesNotHaveCard reports playing or discarding a card the
	// player does not hold.
	ErrPlayerDoesNotHaveCard = errors.New("you do not have that card")

	// ErrExceedsThirtyOne reports a play that would push the count past 31.
	ErrExceedsThirtyOne = errors.New("play would exceed 31")

	// ErrHasLegalPlay reports a "go" from a player who can still play.
	ErrHasLegalPlay = errors.New("you can still play a card")

	// ErrNotPegging reports a pegging verb outside the pegging phase.
	ErrNotPegging = errors.New("not in the play phase")

	// ErrGameOver reports any action after a team has won.
	ErrGameOver = errors.New("game is over")
)
