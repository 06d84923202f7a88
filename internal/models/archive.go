// internal/models/archive.go
package models

import "github.com/google/uuid"

// TrickRecord is one completed trick as archived for replay.
type TrickRecord struct {
	Cards  []Card `json:"cards"`
	Seats  []Seat `json:"seats"`
	Winner Seat   `json:"winner"`
	Points int    `json:"points"`
}

// ScoreBreakdown is the arithmetic trail from raw abnat to final game
// points for one round.
type ScoreBreakdown struct {
	RawUs       int  `json:"raw_us"`
	RawThem     int  `json:"raw_them"`
	ProjectUs   int  `json:"project_us"`
	ProjectThem int  `json:"project_them"`
	BalootUs    int  `json:"baloot_us"`
	BalootThem  int  `json:"baloot_them"`
	FinalUs     int  `json:"final_us"`
	FinalThem   int  `json:"final_them"`
	IsKaboot    bool `json:"is_kaboot"`
	IsKhasara   bool `json:"is_khasara"`
}

// RoundRecord is the durable per-round snapshot appended to the match
// archive at round or match end. Write-only from the engine's perspective.
type RoundRecord struct {
	RoomID       uuid.UUID       `json:"room_id"`
	RoundNumber  int             `json:"round_number"`
	Contract     Contract        `json:"contract"`
	Breakdown    ScoreBreakdown  `json:"breakdown"`
	Tricks       []TrickRecord   `json:"tricks"`
	Dealer       Seat            `json:"dealer"`
	InitialHands map[Seat][]Card `json:"initial_hands"`
	Timestamp    int64           `json:"timestamp"`
}
