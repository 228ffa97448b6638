package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/config"
	"verbquiz-service/internal/infra/memory"
	"verbquiz-service/internal/infra/postgres"
	redissession "verbquiz-service/internal/infra/redis"
	"verbquiz-service/internal/infra/sqlite"
	"verbquiz-service/internal/provider"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backend bundles the service with the connections it owns.
type backend struct {
	service *app.QuizService
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}

	results, closeResults, err := openResults(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, closeResults)

	var store app.SessionRepository = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		store = redissession.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	}

	if cfg.Provider.APIKey == "" {
		log.Printf("no provider api key configured; question generation will fail")
	}
	questions := provider.NewOpenAIProvider(provider.Options{
		APIKey:        cfg.Provider.APIKey,
		BaseURL:       cfg.Provider.BaseURL,
		Model:         cfg.Provider.Model,
		TranscriptDir: cfg.Provider.TranscriptDir,
		Verbose:       cfg.Provider.Verbose || verbose,
	})

	timeout := config.TTLDuration(cfg.Provider.Timeout, app.DefaultLoadTimeout)
	b.service = app.NewQuizService(store, questions, results, timeout)
	return b, nil
}

// openResults picks postgres, then sqlite, then an in-memory history.
func openResults(ctx context.Context, cfg config.Config) (app.ResultRepository, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewResultsStore(pool), pool.Close, nil
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return memory.NewResultsRepository(memory.DefaultResultsCapacity), func() {}, nil
	}
}
