package ws

import (
	"testing"

	"trivia-service/internal/domain"
)

func TestRegistryBindAndMembers(t *testing.T) {
	reg := NewRegistry()
	a := newClient("conn-a", nil)
	b := newClient("conn-b", nil)
	reg.Register(a)
	reg.Register(b)

	reg.Bind("conn-a", "ROOM1")
	reg.Bind("conn-b", "ROOM2")

	if roomID, ok := reg.RoomOf("conn-a"); !ok || roomID != "ROOM1" {
		t.Fatalf("expected conn-a in ROOM1, got %q ok=%v", roomID, ok)
	}
	if members := reg.Members("ROOM1"); len(members) != 1 || members[0] != a {
		t.Fatalf("expected only conn-a in ROOM1, got %d members", len(members))
	}

	reg.Unregister("conn-a")
	if _, ok := reg.RoomOf("conn-a"); ok {
		t.Fatalf("expected conn-a gone after unregister")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 registered connection, got %d", reg.Len())
	}
}

func TestBroadcastDropsUndeliverablePeer(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg)

	healthy := newClient("healthy", nil)
	dead := newClient("dead", nil)
	reg.Register(healthy)
	reg.Register(dead)
	reg.Bind("healthy", "ROOM1")
	reg.Bind("dead", "ROOM1")

	// No writer drains the dead peer; flood its buffer until delivery fails.
	for i := 0; i < cap(dead.send); i++ {
		if !dead.enqueue([]byte("x")) {
			t.Fatalf("buffer filled early at %d", i)
		}
	}

	bus.Broadcast("ROOM1", domain.Event{Type: "countdown_tick"})

	if _, ok := reg.RoomOf("dead"); ok {
		t.Fatalf("expected dead peer removed from registry")
	}
	if _, ok := reg.RoomOf("healthy"); !ok {
		t.Fatalf("expected healthy peer to survive the broadcast")
	}
	// The healthy peer got the frame.
	select {
	case <-healthy.send:
	default:
		t.Fatalf("expected frame queued for healthy peer")
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	c := newClient("c", nil)
	c.shutdown()
	if c.enqueue([]byte("x")) {
		t.Fatalf("expected enqueue to fail after shutdown")
	}
	// Double shutdown must not panic.
	c.shutdown()
}
