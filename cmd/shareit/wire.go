package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"shareit/internal/app/engine"
	"shareit/internal/app/middleware"
	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/schedule"
	"shareit/internal/app/uow"
	"shareit/internal/infra/broker/kafka"
	rediscache "shareit/internal/infra/cache/redis"
	"shareit/internal/infra/config"
	"shareit/internal/infra/cron"
	mongostore "shareit/internal/infra/db/mongo"
	"shareit/internal/infra/db/postgres"
	"shareit/internal/infra/fixtures"
	ginserver "shareit/internal/infra/http/gin"
	"shareit/internal/infra/inbox"
	"shareit/internal/infra/obs"
	infraoutbox "shareit/internal/infra/outbox"
	"shareit/internal/infra/security"
	"shareit/internal/infra/storage/memory"
	"shareit/internal/infra/storage/scylla"
)

const outboxSource = "app://shareit"

type application struct {
	cfg    config.Config
	logger *slog.Logger
	engine *engine.Engine
	server *http.Server

	feed      policies.NotificationFeed
	queue     infraoutbox.Queue
	producer  infraoutbox.Producer
	consumer  *kafka.Consumer
	scheduler schedule.Scheduler

	closers []func(context.Context) error
	wg      sync.WaitGroup
}

// storeBackend is what a STORE_DRIVER contributes: units of work, idempotency records and,
// for durable drivers, the claimable outbox the relay worker drains.
type storeBackend struct {
	uow         uow.UoWFactory
	idempotency middleware.IdempotencyStore
	relay       appoutbox.Outbox
	queue       infraoutbox.Queue
	inbox       kafka.Inbox
	checks      map[string]obs.Check
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	feed, err := app.buildFeed(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.feed = feed

	backend, err := app.buildStore(ctx, feed)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.queue = backend.queue

	var cache policies.BlockedDatesCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		backend.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		cache = rediscache.BlockedDatesCache{Client: client, TTL: cfg.BlockedDatesTTL}
	}

	if err := app.buildBroker(backend); err != nil {
		app.close(ctx)
		return nil, err
	}

	app.engine = engine.New(engine.Deps{
		UoW:           backend.uow,
		Identity:      policies.ContextIdentity{},
		Cache:         cache,
		Idempotency:   backend.idempotency,
		Relay:         backend.relay,
		RetryAttempts: cfg.CommandRetries,
		Logger:        logger,
	})

	tokens := security.HMACTokens{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	limiter := ginserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	app.server = ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: backend.checks}, ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Engine: app.engine},
		Availability:   ginserver.AvailabilityHandler{Engine: app.engine},
		Item:           ginserver.ItemHandler{Engine: app.engine},
		Me:             ginserver.MeHandler{Engine: app.engine, Feed: feed, Logger: logger},
		Admin:          ginserver.AdminHandler{Engine: app.engine, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Tokens: tokens, Logger: logger}.Handle,
		WriteLimit:     limiter.Handle,
	})

	// The in-memory store cannot be reached by the standalone sweeper.
	if cfg.StoreDriver == config.DriverMemory && cfg.SweepSchedule != "" {
		sched := cron.New(ctx, time.Minute, logger)
		if err := sched.Every(cfg.SweepSchedule, "sweep-expired", schedule.SweepJob(app.engine, logger)); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("sweep schedule: %w", err)
		}
		app.scheduler = sched
	}
	return app, nil
}

func (a *application) buildFeed(ctx context.Context) (policies.NotificationFeed, error) {
	if len(a.cfg.ScyllaHosts) == 0 {
		return memory.NewFeed(), nil
	}
	session, err := scylla.NewSession(ctx, scylla.Config{
		Hosts:       a.cfg.ScyllaHosts,
		Keyspace:    a.cfg.ScyllaKeyspace,
		Username:    a.cfg.ScyllaUsername,
		Password:    a.cfg.ScyllaPassword,
		Timeout:     a.cfg.ScyllaTimeout,
		Consistency: gocql.Quorum,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("scylla: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { session.Close(); return nil })
	return scylla.NewStore(session, a.logger), nil
}

func (a *application) buildStore(ctx context.Context, feed policies.NotificationFeed) (storeBackend, error) {
	checks := map[string]obs.Check{}
	switch a.cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongostore.New(a.cfg.MongoURI, a.cfg.MongoDB)
		if err != nil {
			return storeBackend{}, fmt.Errorf("mongo: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if err := client.EnsureIndexes(ctx); err != nil {
			return storeBackend{}, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return storeBackend{}, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, a.cfg.IdempotencyTTL)
		if err != nil {
			return storeBackend{}, fmt.Errorf("mongo idempotency: %w", err)
		}
		consumed, err := inbox.NewStore(ctx, client.DB, a.cfg.KafkaGroupID, 7*24*time.Hour)
		if err != nil {
			return storeBackend{}, fmt.Errorf("mongo inbox: %w", err)
		}
		checks["mongo"] = client.Ping
		return storeBackend{
			uow:         mongostore.NewFactory(client.DB, box),
			idempotency: idem,
			queue:       box,
			inbox:       consumed,
			checks:      checks,
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, a.cfg.PostgresDSN, a.logger)
		if err != nil {
			return storeBackend{}, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return storeBackend{}, fmt.Errorf("postgres schema: %w", err)
		}
		checks["postgres"] = pool.Ping
		return storeBackend{
			uow:         postgres.Factory{Pool: pool},
			idempotency: memory.NewIdempotencyStore(a.cfg.IdempotencyTTL),
			queue:       postgres.OutboxQueue{Pool: pool},
			checks:      checks,
		}, nil
	default:
		box := memory.NewOutbox(feed)
		return storeBackend{
			uow:         memory.NewStore(box),
			idempotency: memory.NewIdempotencyStore(a.cfg.IdempotencyTTL),
			relay:       box,
			checks:      checks,
		}, nil
	}
}

// buildBroker relays the durable outbox to Kafka and consumes notifications back into the
// feed. Without brokers the relay delivers notifications to the feed directly.
func (a *application) buildBroker(backend storeBackend) error {
	if backend.queue == nil {
		return nil
	}
	if len(a.cfg.KafkaBrokers) == 0 {
		a.producer = feedProducer{feed: a.feed}
		return nil
	}
	producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, nil)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	a.producer = producer

	consumer, err := kafka.NewConsumer(a.cfg.KafkaBrokers, a.cfg.KafkaGroupID, nil, kafka.NotificationSink{
		Publisher: a.feed,
		Inbox:     backend.inbox,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	a.consumer = consumer
	return nil
}

func (a *application) startBackground(ctx context.Context) {
	if a.queue != nil && a.producer != nil {
		worker := &infraoutbox.Worker{
			Store:       a.queue,
			Producer:    a.producer,
			Interval:    a.cfg.OutboxPollInterval,
			TopicPrefix: a.cfg.KafkaTopicPrefix,
			Source:      outboxSource,
			Backoff:     a.cfg.RetryBackoff,
			Logger:      a.logger,
		}
		a.goBackground("outbox relay", func() error { return worker.Run(ctx) })
	}
	if a.consumer != nil {
		topic := a.cfg.KafkaTopicPrefix + infraoutbox.NotificationsTopic
		a.goBackground("notification consumer", func() error { return a.consumer.Run(ctx, []string{topic}) })
	}
	if a.scheduler != nil {
		a.scheduler.Start()
		a.goBackground("sweep scheduler", func() error {
			<-ctx.Done()
			<-a.scheduler.Stop().Done()
			return nil
		})
	}
}

func (a *application) goBackground(name string, run func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := run(); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("background task stopped", "task", name, "error", err)
		}
	}()
}

func (a *application) wait() { a.wg.Wait() }

func (a *application) seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	items, err := fixtures.Load(path)
	if err != nil {
		return err
	}
	created, err := fixtures.Seed(ctx, a.engine, items, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("item fixtures loaded", "path", path, "created", created, "total", len(items))
	return nil
}

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

// feedProducer stands in for Kafka: notification events go straight to the feed and
// everything else is dropped.
type feedProducer struct {
	feed policies.NotificationPublisher
}

func (p feedProducer) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	n, ok, err := kafka.DecodeNotification(payload)
	if err != nil || !ok {
		return err
	}
	return p.feed.Publish(ctx, n)
}
