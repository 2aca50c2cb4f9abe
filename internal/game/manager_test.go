package game_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"trivia-service/internal/game"
	"trivia-service/internal/generator"
	"trivia-service/internal/infra/memory"
)

func TestManagerCreateAndLookup(t *testing.T) {
	manager := newTestManager(&recordingBus{}, fastTimings())

	room := manager.Create(context.Background(), 4, 10, "science")
	if len(room.ID()) != 8 || room.ID() != strings.ToUpper(room.ID()) {
		t.Fatalf("expected 8-char uppercase room code, got %q", room.ID())
	}

	got, ok := manager.Get(room.ID())
	if !ok || got != room {
		t.Fatalf("expected to resolve room by code")
	}
	// Codes are shareable; lookup tolerates lowercase input.
	if _, ok := manager.Get(strings.ToLower(room.ID())); !ok {
		t.Fatalf("expected case-insensitive room lookup")
	}
	if _, ok := manager.Get("NOPE1234"); ok {
		t.Fatalf("expected unknown code to miss")
	}
}

func TestManagerClampsRoomConfig(t *testing.T) {
	manager := newTestManager(&recordingBus{}, fastTimings())

	room := manager.Create(context.Background(), 0, 0, "  ")
	if room.Capacity() != game.MinCapacity {
		t.Fatalf("expected capacity clamped to %d, got %d", game.MinCapacity, room.Capacity())
	}
	if room.Topic() != game.DefaultTopic {
		t.Fatalf("expected default topic, got %q", room.Topic())
	}

	room = manager.Create(context.Background(), 99, 99, "x")
	if room.Capacity() != game.MaxCapacity {
		t.Fatalf("expected capacity clamped to %d, got %d", game.MaxCapacity, room.Capacity())
	}
}

func TestManagerCodesAreUnique(t *testing.T) {
	manager := newTestManager(&recordingBus{}, fastTimings())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := manager.Create(context.Background(), 2, 5, "")
		if seen[room.ID()] {
			t.Fatalf("duplicate room code %s", room.ID())
		}
		seen[room.ID()] = true
	}
	if manager.Len() != 50 {
		t.Fatalf("expected 50 live rooms, got %d", manager.Len())
	}
}

func TestManagerMarksPresence(t *testing.T) {
	presence := memory.NewPresenceStore()
	manager := game.NewManager(&recordingBus{}, generator.NewAdapter(nil, time.Second), memory.NewResultArchive(), presence, fastTimings())

	room := manager.Create(context.Background(), 2, 5, "")
	if !presence.Active(room.ID()) {
		t.Fatalf("expected presence marker for live room")
	}

	alice, err := room.Join("Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	room.Disconnect(alice)
	waitDone(t, room, time.Second)

	deadline := time.Now().Add(time.Second)
	for presence.Active(room.ID()) {
		if time.Now().After(deadline) {
			t.Fatalf("expected presence marker cleared after teardown")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
