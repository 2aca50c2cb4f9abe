package memory

import (
	"context"
	"sync"

	"trivia-service/internal/domain"
)

// ResultArchive keeps finished-game results in memory when no Postgres is
// configured.
type ResultArchive struct {
	mu      sync.RWMutex
	results []domain.GameResult
}

func NewResultArchive() *ResultArchive {
	return &ResultArchive{}
}

func (a *ResultArchive) Save(_ context.Context, result domain.GameResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

// Results returns a copy of everything archived so far.
func (a *ResultArchive) Results() []domain.GameResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.GameResult, len(a.results))
	copy(out, a.results)
	return out
}
