// internal/models/game_action.go
package models

// Move is the structured decision returned by a move provider for one seat.
// The orchestrator never inspects how the decision was produced.
type Move struct {
	Action    string `json:"action"`
	CardIndex int    `json:"cardIndex,omitempty"`
	Suit      Suit   `json:"suit,omitempty"`

	// Accusation carries qayd step parameters when Action is a challenge step.
	Accusation *Accusation `json:"accusation,omitempty"`

	// Reasoning is free text from the provider, logged but never interpreted.
	Reasoning string `json:"reasoning,omitempty"`
}

// Accusation identifies the cards involved in a qayd challenge by trick
// index and position within the trick.
type Accusation struct {
	CrimeTrick int `json:"crimeTrick"`
	CrimePos   int `json:"crimePos"`
	ProofTrick int `json:"proofTrick"`
	ProofPos   int `json:"proofPos"`
}
