package ws

import "sync"

// Registry is the concurrent-safe map from connection ID to its live client
// handle and current room. It owns its own mapping; room state machines never
// touch it directly.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*member
}

type member struct {
	client *Client
	roomID string
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*member)}
}

// Register adds a freshly upgraded connection, not yet bound to a room.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[c.id] = &member{client: c}
}

// Bind records which room a connection currently belongs to.
func (r *Registry) Bind(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[connID]; ok {
		m.roomID = roomID
	}
}

// RoomOf resolves a connection to its room.
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[connID]
	if !ok || m.roomID == "" {
		return "", false
	}
	return m.roomID, true
}

// Members returns the clients currently registered to a room. Callers get the
// membership as of call time, not a snapshot from round start.
func (r *Registry) Members(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.members))
	for _, m := range r.members {
		if m.roomID == roomID {
			clients = append(clients, m.client)
		}
	}
	return clients
}

// Unregister removes a connection and stops its writer.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	m, ok := r.members[connID]
	if ok {
		delete(r.members, connID)
	}
	r.mu.Unlock()
	if ok {
		m.client.shutdown()
	}
}

// Len reports how many connections are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
