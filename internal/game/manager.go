package game

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	MinCapacity      = 2
	MaxCapacity      = 10
	MinQuestionCount = 5
	MaxQuestionCount = 20

	DefaultTopic = "general knowledge"
)

// PresenceStore marks which room codes are currently live. Markers are best
// effort; the in-process room map stays authoritative.
type PresenceStore interface {
	Mark(ctx context.Context, roomID string) error
	Clear(ctx context.Context, roomID string) error
}

// Manager owns the live room collection. It is the only component that
// mutates it: rooms enter via Create and leave only through their own
// teardown (finished game, emptied lobby, or expired lobby grace).
type Manager struct {
	bus      Broadcaster
	gen      Generator
	archive  ResultArchive
	presence PresenceStore
	timings  Timings

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager(bus Broadcaster, gen Generator, archive ResultArchive, presence PresenceStore, timings Timings) *Manager {
	return &Manager{
		bus:      bus,
		gen:      gen,
		archive:  archive,
		presence: presence,
		timings:  timings,
		rooms:    make(map[string]*Room),
	}
}

// Create spins up a new room with its own state-machine goroutine. Capacity
// and question count are clamped into their supported ranges rather than
// rejected, mirroring the permissive create flow of the original game.
func (m *Manager) Create(ctx context.Context, capacity, questionCount int, topic string) *Room {
	capacity = clamp(capacity, MinCapacity, MaxCapacity)
	questionCount = clamp(questionCount, MinQuestionCount, MaxQuestionCount)
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	cfg := Config{
		Capacity:      capacity,
		QuestionCount: questionCount,
		Topic:         topic,
		Timings:       m.timings,
	}

	m.mu.Lock()
	id := m.newCodeLocked()
	room := newRoom(id, cfg, m.bus, m.gen, m.archive, m.remove)
	m.rooms[id] = room
	m.mu.Unlock()

	if m.presence != nil {
		if err := m.presence.Mark(ctx, id); err != nil {
			log.Printf("room %s: mark presence: %v", id, err)
		}
	}
	return room
}

// Get resolves a live room by code.
func (m *Manager) Get(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[strings.ToUpper(roomID)]
	return room, ok
}

// Len reports the number of live rooms.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// remove is the single deletion path; rooms call it from their teardown.
func (m *Manager) remove(roomID string) {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()

	if m.presence != nil {
		if err := m.presence.Clear(context.Background(), roomID); err != nil {
			log.Printf("room %s: clear presence: %v", roomID, err)
		}
	}
}

// newCodeLocked generates a short shareable room code, regenerating on the
// off chance it collides with a currently active room.
func (m *Manager) newCodeLocked() string {
	for {
		code := strings.ToUpper(uuid.NewString()[:8])
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
