// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
	"github.com/tazjel/baloot-ai-sub002/internal/orchestrator"
)

// GameMessage is the structure for incoming WebSocket messages from a
// seated client.
type GameMessage struct {
	Type string `json:"type"`

	// Action carries the bid verb for "bid" messages (pass, sun, hokum,
	// ashkal, kawesh, double, gahwa).
	Action string `json:"action,omitempty"`

	// Suit qualifies hokum bids and variant selection.
	Suit models.Suit `json:"suit,omitempty"`

	// Card is the canonical key of the card to play, e.g. "AS".
	Card string `json:"card,omitempty"`

	// Option and Violation drive the challenge menu steps.
	Option    string `json:"option,omitempty"`
	Violation string `json:"violation,omitempty"`

	// Trick and Pos reference a played card for challenge selection.
	Trick int `json:"trick"`
	Pos   int `json:"pos"`
}

// RoomWSHandler upgrades the HTTP connection to WebSocket for a specific
// room. It verifies the seat token, registers the connection against the
// seat, and runs the read loop until the client leaves.
func RoomWSHandler(logger *logrus.Logger, s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid room_id format", http.StatusBadRequest)
			return
		}

		g, ok := s.GetOrRestoreRoom(r.Context(), roomID)
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		claims, err := s.Sessions.VerifySeatToken(bearerToken(r))
		if err != nil || claims.RoomID != roomID {
			http.Error(w, "Invalid seat token", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"baloot"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "baloot" {
			logger.Warnf("Client for room %s connected with invalid subprotocol: %s", roomID, c.Subprotocol())
			c.Close(websocket.StatusCode(BadSubprotocolError), "Client must use the 'baloot' subprotocol.")
			return
		}

		// Bind the connection to the seat and confirm the seat is really
		// held by the token's user.
		g.Mu.Lock()
		p := g.Players[claims.Seat]
		if p == nil || p.UserID != claims.UserID {
			g.Mu.Unlock()
			logger.Warnf("Seat %d in room %s is not held by user %s", claims.Seat, roomID, claims.UserID)
			c.Close(websocket.StatusCode(SeatMismatchError), "Seat is not held by this user.")
			return
		}
		p.Conn = c
		p.Connected = true
		// Catch the client up immediately.
		sendWsMessage(c, stateEnvelope{Type: "state", State: g.ClientStateFor(claims.Seat)})
		g.Mu.Unlock()

		logger.WithFields(logrus.Fields{"room": roomID, "seat": claims.Seat, "user": claims.UserID}).
			Info("websocket connection established")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readGameMessages(ctx, c, g, s.Rooms, claims.Seat, logger)

		g.Mu.Lock()
		if p := g.Players[claims.Seat]; p != nil && p.Conn == c {
			p.Conn = nil
			p.Connected = false
		}
		g.Mu.Unlock()
		logger.WithFields(logrus.Fields{"room": roomID, "seat": claims.Seat}).Info("websocket read loop exited")
	}
}

// readGameMessages reads client messages, routes them into the engine under
// the game lock, and triggers the orchestration follow-ups (bot turns,
// watchdog) after each successful mutation.
func readGameMessages(ctx context.Context, c *websocket.Conn, g *game.Game, rooms *orchestrator.RoomContext, seat models.Seat, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for seat %d in room %s.", seat, g.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for seat %d in room %s.", seat, g.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for seat %d in room %s: %v", seat, g.ID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from seat %d in room %s. Ignoring.", msgType, seat, g.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from seat %d in room %s: %v", seat, g.ID, err)
			sendWsError(c, "Invalid JSON format.")
			continue
		}

		if msg.Type == "ping" {
			sendWsMessage(c, map[string]string{"type": "pong"})
			continue
		}

		g.Mu.Lock()
		if g.Phase == game.PhaseGameOver {
			g.Mu.Unlock()
			sendWsError(c, "Match is over.")
			continue
		}
		res, mutated, roundDone := routeGameMessage(g, seat, msg)
		if mutated {
			if roundDone {
				rooms.ArchiveRound(ctx, g)
			}
			rooms.AfterMutation(ctx, g)
		}
		g.Mu.Unlock()

		if !res.Success {
			sendWsMessage(c, map[string]interface{}{
				"type":   "rejected",
				"code":   res.Code,
				"reason": res.Error,
			})
		}
		if mutated {
			go rooms.RunBotTurns(ctx, g.ID)
			go rooms.WatchdogPass(ctx, g.ID)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// routeGameMessage dispatches one client message into the engine. The
// caller holds the game lock.
func routeGameMessage(g *game.Game, seat models.Seat, msg GameMessage) (res game.Result, mutated, roundDone bool) {
	switch msg.Type {
	case "bid":
		br := g.ProcessBid(seat, strings.ToUpper(msg.Action), msg.Suit)
		return br.Result, br.Success, false

	case "select_variant":
		br := g.SelectVariant(seat, msg.Suit)
		return br.Result, br.Success, false

	case "decline_double":
		r := g.DeclineDouble(seat)
		return r, r.Success, false

	case "play_card":
		card, err := models.ParseCard(msg.Card)
		if err != nil {
			return game.Fail(game.CodeInvalidCard, err.Error()), false, false
		}
		pr := g.PlayCard(seat, card)
		return pr.Result, pr.Success, pr.RoundComplete

	case "declare_projects":
		r := g.DeclareProjects(seat)
		return r, r.Success, false

	case "declare_baloot":
		r := g.DeclareBaloot(seat)
		return r, r.Success, false

	case "qayd_trigger":
		r := g.TriggerQayd(seat)
		return r, r.Success, false

	case "qayd_menu":
		r := g.QaydMenu(seat, strings.ToUpper(msg.Option))
		return r, r.Success, false

	case "qayd_violation":
		r := g.QaydViolation(seat, strings.ToUpper(msg.Violation))
		return r, r.Success, false

	case "qayd_crime":
		r := g.QaydCrimeCard(seat, game.CardRef{Trick: msg.Trick, Pos: msg.Pos})
		return r, r.Success, false

	case "qayd_proof":
		r := g.QaydProofCard(seat, game.CardRef{Trick: msg.Trick, Pos: msg.Pos})
		return r, r.Success, false

	case "qayd_confirm":
		_, r := g.ConfirmQayd(seat)
		return r, r.Success, false

	case "qayd_cancel":
		r := g.CancelQayd(seat)
		return r, r.Success, false

	case "next_round":
		r := g.NextRound()
		return r, r.Success, false

	default:
		return game.Fail(game.CodeInvalidAction, fmt.Sprintf("unknown message type %q", msg.Type)), false, false
	}
}

// sendWsMessage marshals a message and sends it with a write timeout.
func sendWsMessage(c *websocket.Conn, message interface{}) {
	if c == nil {
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.Write(writeCtx, websocket.MessageText, msgBytes)
}

// sendWsError sends a structured error message to the client.
func sendWsError(c *websocket.Conn, errorMsg string) {
	sendWsMessage(c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
