package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-service/internal/domain"
	"trivia-service/internal/game"
	"trivia-service/internal/generator"
	pgarchive "trivia-service/internal/infra/postgres"
	pgmigrations "trivia-service/internal/infra/postgres/migrations"
	redisinfra "trivia-service/internal/infra/redis"
	"trivia-service/internal/transport/ws"
)

func TestFullGameArchivedEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	archive := pgarchive.NewResultArchive(pool)
	presence := redisinfra.NewPresenceStore(redisClient, 5*time.Minute)
	cache := redisinfra.NewQuestionCache(redisClient, staticSource{}, 5*time.Minute)
	adapter := generator.NewAdapter(cache, 5*time.Second)

	registry := ws.NewRegistry()
	bus := ws.NewBus(registry)
	timings := game.Timings{
		Countdown:     40 * time.Millisecond,
		CountdownTick: 20 * time.Millisecond,
		QuestionTime:  100 * time.Millisecond,
		RevealDelay:   20 * time.Millisecond,
		LobbyGrace:    time.Minute,
	}
	manager := game.NewManager(bus, adapter, archive, presence, timings)

	room := manager.Create(ctx, 2, 5, "integration")
	if _, err := room.Join("Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if n, err := redisClient.Exists(ctx, "trivia:room:"+room.ID()).Result(); err != nil || n != 1 {
		t.Fatalf("expected presence marker, exists=%d err=%v", n, err)
	}

	if _, err := room.Join("Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case <-room.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("game did not finish")
	}

	if n, _ := redisClient.Exists(ctx, "questions:integration:5").Result(); n != 1 {
		t.Fatalf("expected generated set cached in redis")
	}

	// Archiving is asynchronous relative to teardown.
	var result domain.GameResult
	deadline := time.Now().Add(5 * time.Second)
	for {
		result, err = archive.Load(ctx, room.ID())
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("load archived result: %v", err)
	}
	if result.Topic != "integration" || result.Questions != 5 || len(result.Standings) != 2 {
		t.Fatalf("unexpected archived result %+v", result)
	}

	deadline = time.Now().Add(5 * time.Second)
	for {
		n, _ := redisClient.Exists(ctx, "trivia:room:"+room.ID()).Result()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected presence marker cleared after teardown")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// staticSource stands in for the LLM collaborator.
type staticSource struct{}

func (staticSource) Questions(_ context.Context, count int, _ string) ([]domain.Question, error) {
	return generator.FallbackSet(count), nil
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
