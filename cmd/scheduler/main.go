package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/rentledger/payment-engine/internal/app"
	"github.com/rentledger/payment-engine/internal/config"
	"github.com/rentledger/payment-engine/internal/logger"
)

type options struct {
	once    bool
	asOf    string
	company string
}

func main() {
	var opts options
	pflag.BoolVar(&opts.once, "once", false, "run every job once and exit")
	pflag.StringVar(&opts.asOf, "as-of", "", "evaluate jobs as of this date (YYYY-MM-DD); only with --once")
	pflag.StringVar(&opts.company, "company", "", "limit jobs to one company id")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging).With(slog.String("component", "scheduler"))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.Close()

	runner := &jobs{app: application, company: opts.company, logger: log}

	if opts.once {
		asOf := application.Clock.Now()
		if opts.asOf != "" {
			if asOf, err = time.Parse("2006-01-02", opts.asOf); err != nil {
				log.Error("invalid --as-of", slog.String("value", opts.asOf), slog.Any("error", err))
				os.Exit(2)
			}
		}
		if err := runner.runOnce(ctx, asOf); err != nil {
			log.Error("scheduler run failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	// Initialize cron scheduler
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(ctx, c, cfg, runner); err != nil {
		log.Error("failed to schedule jobs", slog.Any("error", err))
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	log.Info("scheduler started",
		slog.String("generate_spec", cfg.Scheduler.GenerateSpec),
		slog.String("overdue_spec", cfg.Scheduler.OverdueSpec),
		slog.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, j *jobs) error {
	// Daily generation of scheduled payments and reminders
	if _, err := c.AddFunc(cfg.Scheduler.GenerateSpec, func() {
		if err := j.generate(ctx, j.app.Clock.Now()); err != nil {
			j.logger.Error("generation job failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule generation job: %w", err)
	}

	// Daily overdue sweep
	if _, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		if err := j.markOverdue(ctx, j.app.Clock.Now()); err != nil {
			j.logger.Error("overdue job failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule overdue job: %w", err)
	}

	return nil
}

type jobs struct {
	app     *app.App
	company string
	logger  *slog.Logger
}

func (j *jobs) runOnce(ctx context.Context, asOf time.Time) error {
	if err := j.generate(ctx, asOf); err != nil {
		return err
	}
	return j.markOverdue(ctx, asOf)
}

// generate runs payment generation and reminder dispatch side by side.
func (j *jobs) generate(ctx context.Context, asOf time.Time) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		generated, err := j.app.Schedules.GenerateDue(ctx, j.company, asOf)
		if err != nil {
			return fmt.Errorf("generate scheduled payments: %w", err)
		}
		j.logger.Info("scheduled payments generated", slog.Int("generated", generated))
		return nil
	})

	g.Go(func() error {
		sent, err := j.app.Reminders.DispatchDue(ctx, j.company, asOf)
		if err != nil {
			return fmt.Errorf("dispatch reminders: %w", err)
		}
		j.logger.Info("reminders dispatched", slog.Int("sent", sent))
		return nil
	})

	return g.Wait()
}

func (j *jobs) markOverdue(ctx context.Context, asOf time.Time) error {
	marked, err := j.app.Payments.MarkOverdue(ctx, j.company, asOf)
	if err != nil {
		return fmt.Errorf("mark overdue payments: %w", err)
	}
	j.logger.Info("overdue payments marked", slog.Int("marked", marked))
	return nil
}
