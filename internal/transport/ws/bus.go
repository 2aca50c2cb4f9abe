package ws

import (
	"encoding/json"
	"log"

	"trivia-service/internal/domain"
)

// Bus fans an event out to every connection registered to a room at send
// time. A member that cannot take the frame is dropped from the registry and
// otherwise ignored; a dead peer never blocks or fails the broadcast for the
// rest of the room.
type Bus struct {
	reg *Registry
}

func NewBus(reg *Registry) *Bus {
	return &Bus{reg: reg}
}

func (b *Bus) Broadcast(roomID string, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: marshal %s event: %v", ev.Type, err)
		return
	}
	for _, client := range b.reg.Members(roomID) {
		if !client.enqueue(data) {
			log.Printf("ws: dropping unreachable peer %s from room %s", client.id, roomID)
			b.reg.Unregister(client.id)
		}
	}
}
