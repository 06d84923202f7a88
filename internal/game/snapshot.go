// internal/game/snapshot.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// SnapshotSchemaVersion tags every persisted Game so partial-field evolution
// can't silently corrupt older snapshots. Bump on any incompatible change.
const SnapshotSchemaVersion = 1

// EncodeSnapshot serializes the whole aggregate for the room store. The
// caller holds the game lock.
func EncodeSnapshot(g *Game) ([]byte, error) {
	g.SchemaVersion = SnapshotSchemaVersion
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	return data, nil
}

// DecodeSnapshot rebuilds a Game from stored bytes. Every mutating operation
// must be safe to apply to the result; nil-able containers are restored here
// so no code path depends on in-memory-only initialization.
func DecodeSnapshot(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game snapshot: %w", err)
	}
	if g.SchemaVersion != SnapshotSchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema %d (want %d)", g.SchemaVersion, SnapshotSchemaVersion)
	}
	if g.MatchScores == nil {
		g.MatchScores = map[models.Team]int{}
	}
	if g.Qayd == nil {
		g.Qayd = NewQaydEngine()
	}
	if g.Timer == nil {
		g.Timer = &TimerManager{}
	}
	if g.Projects != nil {
		if g.Projects.Declarations == nil {
			g.Projects.Declarations = map[models.Seat][]Declaration{}
		}
		if g.Projects.Baloots == nil {
			g.Projects.Baloots = map[models.Team]int{}
		}
		if g.Projects.BalootBy == nil {
			g.Projects.BalootBy = map[models.Seat]bool{}
		}
		if g.Projects.Validated == nil {
			g.Projects.Validated = map[models.Team]int{}
		}
	}
	return &g, nil
}

// ClientPlayer is one seat as seen by a particular client: hands other than
// the requester's are reduced to a count.
type ClientPlayer struct {
	Seat      models.Seat   `json:"seat"`
	UserID    uuid.UUID     `json:"user_id"`
	HandSize  int           `json:"hand_size"`
	Hand      []models.Card `json:"hand,omitempty"`
	Captured  int           `json:"captured"`
	IsBot     bool          `json:"is_bot"`
	Connected bool          `json:"connected"`
}

// ClientState is the per-viewer game snapshot broadcast after every
// successful mutation.
type ClientState struct {
	RoomID      uuid.UUID           `json:"room_id"`
	Phase       Phase               `json:"phase"`
	Dealer      models.Seat         `json:"dealer"`
	CurrentSeat models.Seat         `json:"current_seat"`
	FloorCard   *models.Card        `json:"floor_card,omitempty"`
	Contract    *models.Contract    `json:"contract,omitempty"`
	TableCards  []TableCard         `json:"table_cards"`
	TricksDone  int                 `json:"tricks_done"`
	Players     []ClientPlayer      `json:"players"`
	MatchScores map[models.Team]int `json:"match_scores"`
	RoundNumber int                 `json:"round_number"`
	IsLocked    bool                `json:"is_locked"`
	QaydState   QaydState           `json:"qayd_state"`
	LastRound   *models.RoundRecord `json:"last_round,omitempty"`
	RemainingMs int64               `json:"remaining_ms"`
}

// ClientStateFor builds the obfuscated view for one viewer seat. Pass a
// negative seat for a spectator view with no hand revealed. The caller
// holds the game lock.
func (g *Game) ClientStateFor(viewer models.Seat) ClientState {
	st := ClientState{
		RoomID:      g.ID,
		Phase:       g.Phase,
		Dealer:      g.Dealer,
		TableCards:  append([]TableCard(nil), g.TableCards...),
		TricksDone:  len(g.RoundHistory),
		MatchScores: map[models.Team]int{
			models.TeamUs:   g.MatchScores[models.TeamUs],
			models.TeamThem: g.MatchScores[models.TeamThem],
		},
		RoundNumber: g.RoundNumber,
		IsLocked:    g.IsLocked,
		QaydState:   g.Qayd.State,
		LastRound:   g.LastRound,
		RemainingMs: g.Timer.Remaining().Milliseconds(),
	}
	if g.Phase != PhaseWaiting {
		st.CurrentSeat = g.CurrentSeat()
	}
	if g.Phase == PhaseBidding || g.Phase == PhaseVariant {
		// The floor card stays visible through variant selection; the trump
		// choice excludes its suit.
		fc := g.FloorCard
		st.FloorCard = &fc
	}
	if g.Contract.Type != "" && g.Phase != PhaseBidding {
		c := g.Contract
		st.Contract = &c
	}
	for seat := models.Seat(0); seat < 4; seat++ {
		p := g.Players[seat]
		if p == nil {
			continue
		}
		cp := ClientPlayer{
			Seat:      seat,
			UserID:    p.UserID,
			HandSize:  len(p.Hand),
			Captured:  len(p.Captured),
			IsBot:     p.IsBot,
			Connected: p.Connected,
		}
		if seat == viewer {
			cp.Hand = append([]models.Card(nil), p.Hand...)
		}
		st.Players = append(st.Players, cp)
	}
	return st
}
