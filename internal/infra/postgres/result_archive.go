package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-service/internal/domain"
)

// ResultArchive stores finished-game results as JSONB in Postgres. Live room
// state never touches the database; only terminal outcomes are written.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) Save(ctx context.Context, result domain.GameResult) error {
	data, err := json.Marshal(result.Standings)
	if err != nil {
		return fmt.Errorf("marshal standings: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO game_results (room_id, topic, question_count, standings, finished_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		result.RoomID, result.Topic, result.Questions, data, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// Load fetches one archived result by room code, newest first.
func (a *ResultArchive) Load(ctx context.Context, roomID string) (domain.GameResult, error) {
	var (
		result domain.GameResult
		raw    []byte
	)
	err := a.pool.QueryRow(ctx,
		`SELECT room_id, topic, question_count, standings, finished_at
		 FROM game_results WHERE room_id=$1 ORDER BY finished_at DESC LIMIT 1`,
		roomID).Scan(&result.RoomID, &result.Topic, &result.Questions, &raw, &result.FinishedAt)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("load game result: %w", err)
	}
	if err := json.Unmarshal(raw, &result.Standings); err != nil {
		return domain.GameResult{}, fmt.Errorf("unmarshal standings: %w", err)
	}
	return result, nil
}
