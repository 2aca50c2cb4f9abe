package memory

import (
	"context"
	"sync"
)

// PresenceStore tracks live room codes in process memory. It stands in for
// the Redis-backed store in single-node and test setups.
type PresenceStore struct {
	mu    sync.RWMutex
	rooms map[string]struct{}
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{rooms: make(map[string]struct{})}
}

func (s *PresenceStore) Mark(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
	return nil
}

func (s *PresenceStore) Clear(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// Active reports whether a room code is currently marked live.
func (s *PresenceStore) Active(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}
