// internal/models/card.go
package models

import "fmt"

// Suit is one of the four French suits, encoded as a single letter.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Suits lists all four suits in a stable order, used for deck construction.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Rank is a Baloot card rank. The deck runs 7 through Ace; "T" encodes the 10
// to keep every rank a single character.
type Rank string

const (
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "T"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists all eight ranks in ascending deal order.
var Ranks = []Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card is an immutable card identity. Baloot card values depend on the game
// mode, so the point tables live in the game package rather than on the card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Key returns the canonical rank+suit string (e.g. "AS" for the ace of
// spades). It is the identity used for O(1) played-card lookups and for
// challenge signatures.
func (c Card) Key() string {
	return string(c.Rank) + string(c.Suit)
}

func (c Card) String() string {
	return c.Key()
}

// IsPointCard reports whether the card carries points in either mode
// (A, K, Q, J, 10). Kawesh eligibility is defined by holding none of these.
func (c Card) IsPointCard() bool {
	switch c.Rank {
	case Ace, King, Queen, Jack, Ten:
		return true
	}
	return false
}

// ParseCard converts a canonical key back into a Card. Used when decoding
// client payloads and archived tricks.
func ParseCard(key string) (Card, error) {
	if len(key) != 2 {
		return Card{}, fmt.Errorf("invalid card key %q", key)
	}
	r := Rank(key[0:1])
	s := Suit(key[1:2])
	validRank := false
	for _, rr := range Ranks {
		if rr == r {
			validRank = true
			break
		}
	}
	validSuit := false
	for _, ss := range Suits {
		if ss == s {
			validSuit = true
			break
		}
	}
	if !validRank || !validSuit {
		return Card{}, fmt.Errorf("invalid card key %q", key)
	}
	return Card{Suit: s, Rank: r}, nil
}

// NewDeck returns the 32-card Baloot deck in deterministic order. Shuffling
// is the caller's concern.
func NewDeck() []Card {
	deck := make([]Card, 0, 32)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}
