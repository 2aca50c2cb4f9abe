// Package generator turns a topic into a fixed-size question set. The outer
// Adapter is the single failure-containment point for the unreliable
// text-generation dependency: whatever happens upstream, callers always get a
// usable set back.
package generator

import (
	"context"
	"log"
	"time"

	"trivia-service/internal/domain"
)

// Source produces question sets and may fail. Implementations include the LLM
// client and the caches wrapping it.
type Source interface {
	Questions(ctx context.Context, count int, topic string) ([]domain.Question, error)
}

// Adapter bounds the source with a deadline and substitutes the built-in
// fallback set on any failure. Generate never returns an error.
type Adapter struct {
	source  Source
	timeout time.Duration
}

// DefaultTimeout bounds one generation attempt.
const DefaultTimeout = 20 * time.Second

func NewAdapter(source Source, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{source: source, timeout: timeout}
}

// Generate returns exactly count questions. The source result is truncated or
// padded from the fallback set so the length always matches; a missing, slow,
// or broken source yields the fallback set outright.
func (a *Adapter) Generate(ctx context.Context, count int, topic string) []domain.Question {
	if count <= 0 {
		count = FallbackCount
	}
	if a.source == nil {
		return FallbackSet(count)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	questions, err := a.source.Questions(ctx, count, topic)
	if err != nil {
		log.Printf("generator: falling back for topic %q: %v", topic, err)
		return FallbackSet(count)
	}
	return normalize(questions, count)
}

// normalize forces the set to the requested length, padding from the fallback
// questions when the source under-delivers.
func normalize(questions []domain.Question, count int) []domain.Question {
	if len(questions) > count {
		return questions[:count]
	}
	for _, q := range FallbackSet(count) {
		if len(questions) >= count {
			break
		}
		questions = append(questions, q)
	}
	return questions
}
