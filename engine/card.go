// Package engine implements the cribbage rules: card model, hand scoring,
// the pegging sequence, and the round/game state machine.
//
// The package is dependency-free and side-effect free. All rule violations
// are reported as typed errors; nothing here logs or touches I/O, which
// keeps the engine usable both from the live service and from tests that
// construct mid-round states directly.
package engine

import (
	"fmt"
	"strings"
)

// Suit constants, packed into the upper 4 bits of Card.
const (
	SuitClubs    uint8 = 0
	SuitDiamonds uint8 = 1
	SuitHearts   uint8 = 2
	SuitSpades   uint8 = 3
)

// Rank constants, packed into the lower 4 bits of Card. Ranks are 1-based
// so that consecutive ranks are consecutive integers for run detection.
const (
	RankAce   uint8 = 1
	RankTwo   uint8 = 2
	RankThree uint8 = 3
	RankFour  uint8 = 4
	RankFive  uint8 = 5
	RankSix   uint8 = 6
	RankSeven uint8 = 7
	RankEight uint8 = 8
	RankNine  uint8 = 9
	RankTen   uint8 = 10
	RankJack  uint8 = 11
	RankQueen uint8 = 12
	RankKing  uint8 = 13
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
// Cards are immutable values; equality is byte equality.
type Card uint8

// NoCard is the zero Card (rank 0 is not a legal rank).
const NoCard Card = 0

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Value returns the scoring value of the card: face cards count 10,
// everything else counts its rank.
func (c Card) Value() int {
	r := int(c.Rank())
	if r > 10 {
		return 10
	}
	return r
}

// String returns the short text form of the card, e.g. "7h", "10c", "kh".
func (c Card) String() string {
	return rankText(c.Rank()) + suitText(c.Suit())
}

func rankText(r uint8) string {
	switch r {
	case RankAce:
		return "a"
	case RankTen:
		return "10"
	case RankJack:
		return "j"
	case RankQueen:
		return "q"
	case RankKing:
		return "k"
	default:
		if r >= RankTwo && r <= RankNine {
			return string(rune('0' + r))
		}
		return "?"
	}
}

func suitText(s uint8) string {
	switch s {
	case SuitClubs:
		return "c"
	case SuitDiamonds:
		return "d"
	case SuitHearts:
		return "h"
	case SuitSpades:
		return "s"
	}
	return "?"
}

// SuitName returns the full suit name, capitalized, for human-readable output.
func (c Card) SuitName() string {
	switch c.Suit() {
	case SuitClubs:
		return "Clubs"
	case SuitDiamonds:
		return "Diamonds"
	case SuitHearts:
		return "Hearts"
	case SuitSpades:
		return "Spades"
	}
	return "?"
}

// ParseCards parses one or more cards from free-form text. Whitespace,
// hyphens, and commas are stripped; what remains must be a sequence of
// 2-character tokens (3 characters when the rank is "10"). Parsing is
// case-insensitive and accepts both "10" and "t" for Ten. Returns
// ErrInvalidCardSyntax (wrapped) on empty input, unknown rank or suit
// characters, or leftover characters.
func ParseCards(text string) ([]Card, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-', ',':
			return -1
		}
		return r
	}, strings.ToLower(text))

	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCardSyntax)
	}

	var cards []Card
	for i := 0; i < len(cleaned); {
		var rank uint8
		switch ch := cleaned[i]; {
		case ch == '1':
			// "10" is the only 3-character token.
			if i+1 >= len(cleaned) || cleaned[i+1] != '0' {
				return nil, fmt.Errorf("%w: bad rank at %q", ErrInvalidCardSyntax, cleaned[i:])
			}
			rank = RankTen
			i += 2
		case ch == 'a':
			rank = RankAce
			i++
		case ch >= '2' && ch <= '9':
			rank = uint8(ch - '0')
			i++
		case ch == 't':
			rank = RankTen
			i++
		case ch == 'j':
			rank = RankJack
			i++
		case ch == 'q':
			rank = RankQueen
			i++
		case ch == 'k':
			rank = RankKing
			i++
		default:
			return nil, fmt.Errorf("%w: bad rank character %q", ErrInvalidCardSyntax, string(ch))
		}

		if i >= len(cleaned) {
			return nil, fmt.Errorf("%w: missing suit for rank token", ErrInvalidCardSyntax)
		}
		var suit uint8
		switch cleaned[i] {
		case 'c':
			suit = SuitClubs
		case 'd':
			suit = SuitDiamonds
		case 'h':
			suit = SuitHearts
		case 's':
			suit = SuitSpades
		default:
			return nil, fmt.Errorf("%w: bad suit character %q", ErrInvalidCardSyntax, string(cleaned[i]))
		}
		i++

		cards = append(cards, NewCard(suit, rank))
	}
	return cards, nil
}

// ParseCard parses exactly one card from text.
func ParseCard(text string) (Card, error) {
	cards, err := ParseCards(text)
	if err != nil {
		return NoCard, err
	}
	if len(cards) != 1 {
		return NoCard, fmt.Errorf("%w: expected one card, got %d", ErrInvalidCardSyntax, len(cards))
	}
	return cards[0], nil
}

// FormatCards renders cards in the hyphen-delimited wire form,
// e.g. "7h-3s-10c-kh-qd".
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, "-")
}
