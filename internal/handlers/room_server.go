// internal/handlers/room_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/auth"
	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
	"github.com/tazjel/baloot-ai-sub002/internal/orchestrator"
)

// RoomServer is the HTTP surface for creating rooms, seating players and
// starting matches. All room state lives behind the orchestrator context.
type RoomServer struct {
	Rooms    *orchestrator.RoomContext
	Sessions *auth.Sessions
	Logger   *logrus.Logger
}

func NewRoomServer(rooms *orchestrator.RoomContext, sessions *auth.Sessions, logger *logrus.Logger) *RoomServer {
	// The broadcast hook is wired here, before any goroutine can touch the
	// context; connection handlers must never write this shared field.
	if rooms.Broadcast == nil {
		rooms.Broadcast = NewBroadcastFunc(logger)
	}
	return &RoomServer{Rooms: rooms, Sessions: sessions, Logger: logger}
}

// ServeHTTP routes /room/* requests. WebSocket connections are handled
// separately by RoomWSHandler.
func (s *RoomServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/room/create" && r.Method == http.MethodPost:
		s.handleCreateRoom(w, r)
	case strings.HasPrefix(r.URL.Path, "/room/join/") && r.Method == http.MethodPost:
		s.handleJoinRoom(w, r)
	case strings.HasPrefix(r.URL.Path, "/room/start/") && r.Method == http.MethodPost:
		s.handleStartMatch(w, r)
	case strings.HasPrefix(r.URL.Path, "/room/state/") && r.Method == http.MethodGet:
		s.handleRoomState(w, r)
	default:
		http.Error(w, "unsupported route, use /room/ws/{id} for websockets", http.StatusNotFound)
	}
}

// GetOrRestoreRoom returns the in-memory aggregate for a room, rebuilding it
// from the snapshot store if this process has never seen it (or restarted
// since). A room is only gone once both the registry and the store miss.
func (s *RoomServer) GetOrRestoreRoom(ctx context.Context, roomID uuid.UUID) (*game.Game, bool) {
	if g, ok := s.Rooms.Store.GetGame(roomID); ok {
		return g, true
	}
	if s.Rooms.Cache == nil {
		return nil, false
	}
	data, err := s.Rooms.Cache.LoadSnapshot(ctx, roomID)
	if err != nil {
		s.Logger.Warnf("snapshot load failed for room %s: %v", roomID, err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	g, err := game.DecodeSnapshot(data)
	if err != nil {
		s.Logger.Errorf("snapshot decode failed for room %s: %v", roomID, err)
		return nil, false
	}
	s.Rooms.Store.AddGame(g)
	s.Logger.Infof("room %s restored from snapshot", roomID)
	return g, true
}

func (s *RoomServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rules map[string]interface{} `json:"rules,omitempty"`
	}
	if r.Body != nil {
		// An empty body means default rules.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	rules := models.DefaultRoomRules()
	if err := rules.Update(body.Rules); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g := game.NewGame(uuid.New(), rules)
	s.Rooms.Store.AddGame(g)
	s.Logger.WithField("room", g.ID).Info("room created")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": g.ID,
		"rules":   rules,
	})
}

func (s *RoomServer) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/room/join/"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	g, ok := s.GetOrRestoreRoom(r.Context(), roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	var body struct {
		UserID string `json:"user_id"`
		Seat   int    `json:"seat"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	if body.Seat < 0 || body.Seat > 3 {
		http.Error(w, "seat must be 0-3", http.StatusBadRequest)
		return
	}
	seat := models.Seat(body.Seat)

	g.Mu.Lock()
	res := g.AddPlayer(userID, seat, false)
	g.Mu.Unlock()
	if !res.Success {
		writeJSON(w, http.StatusConflict, res)
		return
	}

	token, err := s.Sessions.IssueSeatToken(userID, roomID, seat)
	if err != nil {
		s.Logger.Errorf("seat token issue failed for room %s: %v", roomID, err)
		http.Error(w, "failed to issue seat token", http.StatusInternalServerError)
		return
	}
	s.Logger.WithFields(logrus.Fields{"room": roomID, "seat": seat, "user": userID}).Info("player seated")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id":    roomID,
		"seat":       seat,
		"seat_token": token,
	})
}

func (s *RoomServer) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/room/start/"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	g, ok := s.GetOrRestoreRoom(r.Context(), roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	g.Mu.Lock()
	res := g.StartMatch()
	if res.Success {
		s.Rooms.AfterMutation(context.Background(), g)
	}
	g.Mu.Unlock()
	if !res.Success {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	s.Logger.WithField("room", roomID).Info("match started")
	go s.Rooms.RunBotTurns(context.Background(), roomID)

	writeJSON(w, http.StatusOK, res)
}

// handleRoomState returns the seat-filtered view for the token holder. The
// live channel is the websocket; this endpoint serves reconnect catch-up.
func (s *RoomServer) handleRoomState(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/room/state/"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	claims, err := s.Sessions.VerifySeatToken(bearerToken(r))
	if err != nil || claims.RoomID != roomID {
		http.Error(w, "invalid seat token", http.StatusForbidden)
		return
	}
	g, ok := s.GetOrRestoreRoom(r.Context(), roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	g.Mu.Lock()
	state := g.ClientStateFor(claims.Seat)
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
