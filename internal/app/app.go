// Package app wires configuration, storage and services together for the
// server and scheduler binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/config"
	"github.com/rentledger/payment-engine/internal/database"
	"github.com/rentledger/payment-engine/internal/lock"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/notification"
	"github.com/rentledger/payment-engine/internal/repository"
	"github.com/rentledger/payment-engine/internal/service"
)

const lockPrefix = "rentledger:lock:"

// App holds the long-lived dependencies of a process.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock
	DB     *sqlx.DB
	// Redis is nil when REDIS_ENABLED is false.
	Redis *redis.Client
	Store *repository.Store

	Payouts   *service.PayoutManager
	Allocator *service.AllocationEngine
	Payments  *service.PaymentLifecycle
	Schedules *service.RecurrenceScheduler
	Reminders *service.ReminderDispatcher
}

// New opens the database (migrating it when configured), connects Redis when
// enabled and builds every service.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	log = logger.OrDiscard(log)

	// Initialize database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	a := &App{
		Config: cfg,
		Logger: log,
		Clock:  clock.Real{},
		DB:     db,
		Store:  repository.NewStore(db),
	}

	// Initialize Redis
	var (
		locker lock.Locker
		sender notification.Sender
	)
	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedis(a.Redis, lockPrefix, cfg.Business.LockTTL, log)
		sender = notification.NewRedisSender(a.Redis, cfg.Business.NotificationChannel)
	} else {
		log.Warn("redis disabled, using in-process locks and logged notifications")
		locker = lock.NewLocal()
		sender = notification.NewLogSender(log)
	}

	// Initialize services
	notifier := notification.NewNotifier(sender, log)
	refs := service.NewReferenceGenerator(a.Clock, cfg.Business.ReferenceMaxAttempts)
	fees := service.NewFeeCalculator(log)

	a.Payouts = service.NewPayoutManager(a.Store, refs, notifier, a.Clock, log)
	a.Allocator = service.NewAllocationEngine(a.Store, locker, a.Payouts, a.Clock, log)
	a.Payments = service.NewPaymentLifecycle(a.Store, locker, a.Allocator, refs, fees, a.Clock, cfg.Business, log)
	a.Schedules = service.NewRecurrenceScheduler(a.Store, locker, a.Payments, a.Clock, cfg.Business, log)
	a.Reminders = service.NewReminderDispatcher(a.Store, notifier, a.Clock, log)

	return a, nil
}

// RedisClient returns the Redis client as an interface value that is nil
// when Redis is disabled.
func (a *App) RedisClient() redis.UniversalClient {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
