// internal/models/player.go
package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Seat is a fixed table position 0-3, mapped to compass positions
// (0=south, 1=west, 2=north, 3=east). Turn order ascends modulo 4.
type Seat int

// Next returns the seat to the left.
func (s Seat) Next() Seat {
	return (s + 1) % 4
}

// Partner returns the seat across the table.
func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

// Team partitions the four seats by parity: seats 0 and 2 are "us",
// seats 1 and 3 are "them".
type Team int

const (
	TeamUs   Team = 0
	TeamThem Team = 1
)

// TeamOf returns the team a seat belongs to.
func TeamOf(s Seat) Team {
	return Team(int(s) % 2)
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	return 1 - t
}

func (t Team) String() string {
	if t == TeamUs {
		return "us"
	}
	return "them"
}

// Player is one occupant of a seat. A Player is owned exclusively by the
// Game that created it and never outlives its room.
type Player struct {
	UserID uuid.UUID `json:"user_id"`
	Seat   Seat      `json:"seat"`

	// Hand order is meaningful for the UI only; legality never depends on it.
	Hand     []Card `json:"hand"`
	Captured []Card `json:"captured"`

	IsBot     bool            `json:"is_bot"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// Team returns the player's team.
func (p *Player) Team() Team {
	return TeamOf(p.Seat)
}

// HasCard reports whether the hand holds the exact card.
func (p *Player) HasCard(card Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// RemoveCard removes the first occurrence of card from the hand and reports
// whether it was present.
func (p *Player) RemoveCard(card Card) bool {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
