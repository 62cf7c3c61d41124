package engine

import (
	"errors"
	"testing"
)

// TestParseCardsWireForm parses the hyphen-delimited wire encoding.
func TestParseCardsWireForm(t *testing.T) {
	cards, err := ParseCards("7h-3s-10c-kh-qd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Card{
		NewCard(SuitHearts, RankSeven),
		NewCard(SuitSpades, RankThree),
		NewCard(SuitClubs, RankTen),
		NewCard(SuitHearts, RankKing),
		NewCard(SuitDiamonds, RankQueen),
	}
	if len(cards) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(cards))
	}
	for i := range want {
		if cards[i] != want[i] {
			t.Errorf("card %d: expected %s, got %s", i, want[i], cards[i])
		}
	}
}

// TestParseCardsSpacesAndCase accepts space delimiters and mixed case.
func TestParseCardsSpacesAndCase(t *testing.T) {
	cards, err := ParseCards(" AS  Th ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0] != NewCard(SuitSpades, RankAce) {
		t.Errorf("expected as, got %s", cards[0])
	}
	if cards[1] != NewCard(SuitHearts, RankTen) {
		t.Errorf("expected 10h, got %s", cards[1])
	}
}

// TestParseCardsTenForms: "10c" and "tc" decode to the same card.
func TestParseCardsTenForms(t *testing.T) {
	a, err := ParseCard("10c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ParseCard("tc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("10c (%s) != tc (%s)", a, b)
	}
}

// TestParseCardsRejects covers the InvalidCardSyntax cases.
func TestParseCardsRejects(t *testing.T) {
	for _, input := range []string{"", "   ", "7", "7x", "zc", "1c", "7h3"} {
		if _, err := ParseCards(input); !errors.Is(err, ErrInvalidCardSyntax) {
			t.Errorf("input %q: expected ErrInvalidCardSyntax, got %v", input, err)
		}
	}
}

// TestParseCardSingle rejects multi-card input.
func TestParseCardSingle(t *testing.T) {
	if _, err := ParseCard("7h 3s"); !errors.Is(err, ErrInvalidCardSyntax) {
		t.Errorf("expected ErrInvalidCardSyntax for two cards, got %v", err)
	}
}

// TestCardValue: face cards count ten, everything else its rank.
func TestCardValue(t *testing.T) {
	cases := map[Card]int{
		NewCard(SuitClubs, RankAce):    1,
		NewCard(SuitClubs, RankNine):   9,
		NewCard(SuitClubs, RankTen):    10,
		NewCard(SuitClubs, RankJack):   10,
		NewCard(SuitClubs, RankQueen):  10,
		NewCard(SuitClubs, RankKing):   10,
	}
	for card, want := range cases {
		if got := card.Value(); got != want {
			t.Errorf("%s: expected value %d, got %d", card, want, got)
		}
	}
}

// TestFormatCards round-trips the wire encoding.
func TestFormatCards(t *testing.T) {
	in := "7h-3s-10c-kh-qd"
	cards, err := ParseCards(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := FormatCards(cards); out != in {
		t.Errorf("expected %q, got %q", in, out)
	}
}
