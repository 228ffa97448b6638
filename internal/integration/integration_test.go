package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/domain"
	"verbquiz-service/internal/infra/postgres"
	pgmigrations "verbquiz-service/internal/infra/postgres/migrations"
	infraredis "verbquiz-service/internal/infra/redis"
	"verbquiz-service/internal/provider"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestChallengeRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateResults(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := []domain.Question{
		{IncompleteSentence: "Ik [___] naar school.", Infinitive: "lopen", CorrectForm: "loop", Tense: "tegenwoordige tijd"},
		{IncompleteSentence: "Gisteren [___] wij pizza.", Infinitive: "eten", CorrectForm: "aten", Tense: "verleden tijd"},
		{IncompleteSentence: "Hij [___] hard.", Infinitive: "werken", CorrectForm: "werkt", Tense: "tegenwoordige tijd"},
	}
	results := postgres.NewResultsStore(pool)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessionStore, provider.NewStaticProvider(questions), results, 10*time.Second)
	router := app.NewRouter(service)

	if _, err := router.StartGame(ctx, domain.ModeChallenge); err != nil {
		t.Fatalf("start: %v", err)
	}
	id := router.GameID()
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+id).Result(); n != 1 {
		t.Fatalf("expected liveness marker for %s", id)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := router.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	var snap domain.Snapshot
	for _, answer := range []string{"loop", "eette", "Werkt"} {
		if snap, err = router.Submit(ctx, answer); err != nil {
			t.Fatalf("submit %q: %v", answer, err)
		}
	}
	if snap.State != domain.StateFinished || snap.Results.ScoreLine() != "2 / 3" {
		t.Fatalf("expected 2 / 3, got %+v", snap)
	}

	recent, err := service.RecentResults(ctx, 5)
	if err != nil {
		t.Fatalf("recent results: %v", err)
	}
	if len(recent) != 1 || recent[0].SessionID != id || recent[0].Score != 2 || recent[0].Total != 3 {
		t.Fatalf("expected stored result, got %+v", recent)
	}

	router.EndGame(ctx)
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+id).Result(); n != 0 {
		t.Fatalf("expected liveness marker removed")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "verbquiz", "POSTGRES_PASSWORD": "verbquiz", "POSTGRES_DB": "verbquiz"},
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
	dsn := fmt.Sprintf("postgres://verbquiz:verbquiz@%s:%s/verbquiz?sslmode=disable", host, port.Port())
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

func migrateResults(t *testing.T, ctx context.Context, dsn string) {
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
