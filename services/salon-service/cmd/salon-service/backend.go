package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/libs/config"
	"github.com/md-rashed-zaman/glamflow/libs/db"
	"github.com/md-rashed-zaman/glamflow/libs/httpx"
	"github.com/md-rashed-zaman/glamflow/libs/kafkax"
	"github.com/md-rashed-zaman/glamflow/libs/runtime"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type backend struct {
	store  recordstore.Store
	seeder recordstore.Seeder
	checks []runtime.ReadyCheck
	close  func()
}

// openBackend selects the record store. "memory" keeps everything in process
// and suits local development; "postgres" also starts the change listener and
// the outbox publisher on g.
func openBackend(ctx context.Context, g *errgroup.Group, logger *slog.Logger, settings model.SiteSettings) (*backend, error) {
	switch kind := strings.ToLower(config.String("STORE", "postgres")); kind {
	case "memory":
		logger.Warn("using in-memory record store; data is lost on restart")
		mem := recordstore.NewMemory()
		return &backend{store: mem, seeder: mem, close: func() {}}, nil

	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return nil, err
		}
		pool, err := db.Open(ctx, dbURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
			MinConns: int32(config.Int("DB_MIN_CONNS", 2)),
		})
		if err != nil {
			return nil, fmt.Errorf("db connection failed: %w", err)
		}
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		outboxRepo := outbox.NewRepository()
		store := storage.New(pool, outboxRepo, logger, settings)
		g.Go(func() error { return store.Listen(ctx) })

		brokers := config.String("KAFKA_BROKERS", "")
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			OnPublish: func(string) { metrics.AddOutboxPublished(1) },
		})
		g.Go(func() error { return publisher.Run(ctx) })

		return &backend{
			store:  store,
			seeder: store,
			checks: postgresChecks(pool, brokers),
			close:  pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE %q (want postgres or memory)", kind)
	}
}

// postgresChecks adds the Kafka check only when brokers are configured; without them
// the outbox keeps events in the table and the service is still ready.
func postgresChecks(pool *db.Pool, brokers string) []runtime.ReadyCheck {
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if list := kafkax.SplitBrokers(brokers); len(list) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(list)})
	}
	return checks
}

// rateLimiter prefers Redis so several replicas share one budget.
func rateLimiter(logger *slog.Logger) (httpx.Middleware, func()) {
	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	addr := strings.TrimSpace(config.String("REDIS_ADDR", ""))
	if addr == "" {
		logger.Info("rate limiting enabled (in-memory)", "per_minute", perMinute)
		return httpx.RateLimit(httpx.NewRateLimiter(perMinute, time.Minute), logger, true), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
	rl := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "glamflow:rl"))
	logger.Info("rate limiting enabled (redis)", "per_minute", perMinute, "redis_addr", addr)
	return httpx.RateLimit(rl, logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)), func() { _ = rdb.Close() }
}
