// Command shareit-sweeper cancels expired booking requests on a cron schedule against a
// shared Mongo or Postgres store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/app/engine"
	bookingapp "shareit/internal/app/handlers/booking"
	"shareit/internal/app/policies"
	"shareit/internal/app/schedule"
	"shareit/internal/app/uow"
	rediscache "shareit/internal/infra/cache/redis"
	"shareit/internal/infra/config"
	"shareit/internal/infra/cron"
	mongostore "shareit/internal/infra/db/mongo"
	"shareit/internal/infra/db/postgres"
	"shareit/internal/infra/obs"
	infraoutbox "shareit/internal/infra/outbox"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = config.LoadDotEnv(".env")
	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod", "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	if err := run(ctx, cfg, *once, logger); err != nil {
		logger.Error("sweeper failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, once bool, logger *slog.Logger) error {
	factory, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var cache policies.BlockedDatesCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		cache = rediscache.BlockedDatesCache{Client: client, TTL: cfg.BlockedDatesTTL}
	}

	eng := engine.New(engine.Deps{UoW: factory, Cache: cache, Logger: logger})

	if once {
		result, err := eng.Sweep(ctx, bookingapp.SweepCommand{})
		if err != nil {
			return err
		}
		logger.Info("sweep finished", "scanned", result.Scanned, "cancelled", result.Cancelled, "skipped", result.Skipped, "failed", result.Failed)
		return nil
	}

	sched := cron.New(ctx, time.Minute, logger)
	if err := sched.Every(cfg.SweepSchedule, "sweep-expired", schedule.SweepJob(eng, logger)); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", cfg.SweepSchedule, err)
	}
	sched.Start()
	logger.Info("sweeper started", "schedule", cfg.SweepSchedule, "store", cfg.StoreDriver)
	<-ctx.Done()
	<-sched.Stop().Done()
	logger.Info("sweeper stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (uow.UoWFactory, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		closeFn := func() { _ = client.Close(context.Background()) }
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo outbox: %w", err)
		}
		return mongostore.NewFactory(client.DB, box), closeFn, nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return postgres.Factory{Pool: pool}, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("store driver %q is process local; the server sweeps it itself", cfg.StoreDriver)
	}
}
