package cli

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-service/internal/config"
	"trivia-service/internal/game"
	"trivia-service/internal/generator"
	"trivia-service/internal/infra/memory"
	pgarchive "trivia-service/internal/infra/postgres"
	redisinfra "trivia-service/internal/infra/redis"
	"trivia-service/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8765"
	}
	// Bind all interfaces unless the config narrows it; the server usually
	// sits behind a network boundary.
	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Question generation chain: LLM source (if configured) behind a shared
	// cache, all wrapped by the fallback adapter.
	var source generator.Source
	if cfg.Generator.APIKey != "" && cfg.Generator.APIURL != "" {
		source = generator.NewLLMClient(cfg.Generator.APIURL, cfg.Generator.APIKey, cfg.Generator.Model)
	}
	cacheTTL := config.TTLDuration(cfg.Game.CacheTTL, 10*time.Minute)
	if source != nil {
		if redisClient != nil {
			source = redisinfra.NewQuestionCache(redisClient, source, cacheTTL)
		} else {
			source = memory.NewQuestionCache(source, cacheTTL)
		}
	}
	adapter := generator.NewAdapter(source, config.TTLDuration(cfg.Generator.Timeout, generator.DefaultTimeout))

	var presence game.PresenceStore
	if redisClient != nil {
		presence = redisinfra.NewPresenceStore(redisClient, config.TTLDuration(cfg.Redis.TTL, time.Hour))
	} else {
		presence = memory.NewPresenceStore()
	}

	var archive game.ResultArchive
	if pool != nil {
		archive = pgarchive.NewResultArchive(pool)
	} else {
		archive = memory.NewResultArchive()
	}

	timings := game.DefaultTimings()
	timings.Countdown = config.TTLDuration(cfg.Game.Countdown, timings.Countdown)
	timings.QuestionTime = config.TTLDuration(cfg.Game.QuestionTime, timings.QuestionTime)
	timings.RevealDelay = config.TTLDuration(cfg.Game.RevealDelay, timings.RevealDelay)
	timings.LobbyGrace = config.TTLDuration(cfg.Game.LobbyGrace, timings.LobbyGrace)

	registry := ws.NewRegistry()
	bus := ws.NewBus(registry)
	manager := game.NewManager(bus, adapter, archive, presence, timings)
	handler := ws.NewHandler(manager, registry, ws.DefaultKeepalive())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.ServeWS)

	server := &http.Server{
		Addr:        net.JoinHostPort(host, finalPort),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
