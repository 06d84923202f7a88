// internal/game/game_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore is the in-process room registry. Besides the live aggregates it
// owns one advisory mutex per room for single-flight background passes (the
// watchdog); a held lock makes concurrent passes no-op instead of queueing.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Game
	watch map[uuid.UUID]*sync.Mutex
}

// NewGameStore returns an empty registry.
func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*Game),
		watch: make(map[uuid.UUID]*sync.Mutex),
	}
}

// AddGame registers a room.
func (s *GameStore) AddGame(g *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	if _, ok := s.watch[g.ID]; !ok {
		s.watch[g.ID] = &sync.Mutex{}
	}
}

// GetGame looks a room up by id.
func (s *GameStore) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// DeleteGame removes a room and its advisory lock.
func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	delete(s.watch, id)
}

// ListIDs returns the ids of all registered rooms, for the pollers.
func (s *GameStore) ListIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	return ids
}

// TryAcquireWatch takes the room's advisory watchdog lock without blocking.
// Returns false when another pass already holds it.
func (s *GameStore) TryAcquireWatch(id uuid.UUID) bool {
	s.mu.Lock()
	m, ok := s.watch[id]
	if !ok {
		m = &sync.Mutex{}
		s.watch[id] = m
	}
	s.mu.Unlock()
	return m.TryLock()
}

// ReleaseWatch releases the advisory lock taken by TryAcquireWatch.
func (s *GameStore) ReleaseWatch(id uuid.UUID) {
	s.mu.Lock()
	m, ok := s.watch[id]
	s.mu.Unlock()
	if ok {
		m.Unlock()
	}
}
