package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-service/internal/domain"
	"trivia-service/internal/generator"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	source := &countingSource{}
	cache := NewQuestionCache(client, source, time.Minute)

	questions, err := cache.Questions(context.Background(), 5, "history")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("questions:history:5") {
		t.Fatalf("expected cached set in redis")
	}

	// Second call should hit cache, source not incremented.
	if _, err := cache.Questions(context.Background(), 5, "history"); err != nil {
		t.Fatalf("questions 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
}

func TestQuestionCacheCorruptEntryRegenerates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	_ = mr.Set("questions:history:5", "not json")

	source := &countingSource{}
	cache := NewQuestionCache(newClient(mr), source, time.Minute)
	questions, err := cache.Questions(context.Background(), 5, "history")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 || source.calls != 1 {
		t.Fatalf("expected regeneration past corrupt entry, got %d questions and %d calls", len(questions), source.calls)
	}
}

type countingSource struct {
	calls int
}

func (s *countingSource) Questions(ctx context.Context, count int, topic string) ([]domain.Question, error) {
	s.calls++
	return generator.FallbackSet(count), nil
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
