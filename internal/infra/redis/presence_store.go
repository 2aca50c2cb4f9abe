package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceStore marks live room codes in Redis with a TTL. The in-process
// room map stays authoritative; these markers exist for operational
// visibility and as groundwork for cross-instance room discovery.
type PresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func (s *PresenceStore) Mark(ctx context.Context, roomID string) error {
	return s.client.Set(ctx, s.key(roomID), "1", s.ttl).Err()
}

func (s *PresenceStore) Clear(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, s.key(roomID)).Err()
}

func (s *PresenceStore) key(roomID string) string {
	return "trivia:room:" + roomID
}
