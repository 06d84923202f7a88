// internal/models/room_rules.go
package models

import "fmt"

// RoomRules captures the game-time configuration for one room: timer
// lengths, doubling cap, legality strictness and bot fill policy.
type RoomRules struct {
	// TurnTimerSec is how many seconds each turn lasts before the default
	// action is applied (0 => no limit).
	TurnTimerSec int `json:"turnTimerSec"`

	// GablakWindowSec is the grace window after a tentative bid during which
	// the same bid can still be escalated.
	GablakWindowSec int `json:"gablakWindowSec"`

	// MaxDoublingLevel caps ordinary doubling (gahwa is requested explicitly).
	MaxDoublingLevel int `json:"maxDoublingLevel"`

	// StrictLegality rejects illegal plays outright instead of accepting and
	// flagging them for forensic detection. Flagging is the default.
	StrictLegality bool `json:"strictLegality"`

	// TrumpForcing requires a void player holding trump to play it unless a
	// teammate is currently winning the trick.
	TrumpForcing bool `json:"trumpForcing"`

	// FillWithBots seats automated players in any empty seat at start.
	FillWithBots bool `json:"fillWithBots"`

	// MatchTarget is the cumulative score that ends the match.
	MatchTarget int `json:"matchTarget"`
}

// DefaultRoomRules returns the standard configuration.
func DefaultRoomRules() RoomRules {
	return RoomRules{
		TurnTimerSec:     15,
		GablakWindowSec:  5,
		MaxDoublingLevel: DoubleFour,
		StrictLegality:   false,
		TrumpForcing:     true,
		FillWithBots:     true,
		MatchTarget:      152,
	}
}

// Update overlays the provided values onto the rules. Unknown keys are
// ignored; wrongly-typed values are an error and leave the rules unchanged.
func (r *RoomRules) Update(newRules map[string]interface{}) error {
	updated := *r

	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}
	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := newRules[key]; exists && val != nil {
			// JSON numbers arrive as float64.
			switch v := val.(type) {
			case float64:
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be >= %d", key, minVal)
			}
		}
		return nil
	}

	if err := assignBool(&updated.StrictLegality, "strictLegality"); err != nil {
		return err
	}
	if err := assignBool(&updated.TrumpForcing, "trumpForcing"); err != nil {
		return err
	}
	if err := assignBool(&updated.FillWithBots, "fillWithBots"); err != nil {
		return err
	}
	if err := assignInt(&updated.TurnTimerSec, "turnTimerSec", 0); err != nil {
		return err
	}
	if err := assignInt(&updated.GablakWindowSec, "gablakWindowSec", 0); err != nil {
		return err
	}
	if err := assignInt(&updated.MaxDoublingLevel, "maxDoublingLevel", 1); err != nil {
		return err
	}
	if err := assignInt(&updated.MatchTarget, "matchTarget", 1); err != nil {
		return err
	}

	*r = updated
	return nil
}
