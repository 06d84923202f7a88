// internal/handlers/broadcast.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// stateEnvelope wraps the per-seat view for the wire.
type stateEnvelope struct {
	Type  string           `json:"type"`
	State game.ClientState `json:"state"`
}

// degradedEnvelope is sent when the full state fails to marshal; clients
// learn the phase changed and can re-fetch over HTTP.
type degradedEnvelope struct {
	Type   string     `json:"type"`
	RoomID uuid.UUID  `json:"room_id"`
	Phase  game.Phase `json:"phase"`
}

// NewBroadcastFunc builds the hook the orchestrator calls after every
// successful mutation. It is invoked while the game lock is held: the
// per-seat views are captured synchronously, the socket writes happen on a
// separate goroutine so slow clients never stall game logic.
func NewBroadcastFunc(logger *logrus.Logger) func(g *game.Game) {
	return func(g *game.Game) {
		type outbound struct {
			conn *websocket.Conn
			data []byte
		}
		var sends []outbound

		for seat, p := range g.Players {
			if p == nil || !p.Connected || p.Conn == nil {
				continue
			}
			view := stateEnvelope{Type: "state", State: g.ClientStateFor(models.Seat(seat))}
			data, err := json.Marshal(view)
			if err != nil {
				logger.Errorf("state marshal failed for room %s seat %d: %v", g.ID, seat, err)
				data, err = json.Marshal(degradedEnvelope{Type: "state_degraded", RoomID: g.ID, Phase: g.Phase})
				if err != nil {
					continue
				}
			}
			sends = append(sends, outbound{conn: p.Conn, data: data})
		}

		roomID := g.ID
		go func() {
			for _, s := range sends {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				if err := s.conn.Write(ctx, websocket.MessageText, s.data); err != nil {
					logger.Warnf("broadcast write failed in room %s: %v", roomID, err)
				}
				cancel()
			}
		}()
	}
}
