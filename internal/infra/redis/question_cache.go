package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-service/internal/domain"
	"trivia-service/internal/generator"
)

// QuestionCache caches generated question sets in Redis and falls back to the
// wrapped source on cache miss. Sets are stored as JSON under
// questions:{topic}:{count}, so every node of a deployment shares one
// generation call per topic.
type QuestionCache struct {
	client *redis.Client
	source generator.Source
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, source generator.Source, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, count int, topic string) ([]domain.Question, error) {
	key := c.key(count, topic)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if questions, err := decodeSet(cached); err == nil {
			return questions, nil
		}
		// A corrupt entry falls through to regeneration.
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
			if questions, err := decodeSet(cached); err == nil {
				return questions, nil
			}
		}

		questions, err := c.source.Questions(ctx, count, topic)
		if err != nil {
			return nil, err
		}

		if encoded, err := json.Marshal(questions); err == nil {
			// best-effort write; generation already succeeded
			_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) key(count int, topic string) string {
	return fmt.Sprintf("questions:%s:%d", topic, count)
}

func decodeSet(data []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("empty cached question set")
	}
	return questions, nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
