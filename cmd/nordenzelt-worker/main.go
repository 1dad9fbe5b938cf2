package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nordenzelt/internal/amqp"
	"nordenzelt/internal/config"
	"nordenzelt/internal/gcal"
	applog "nordenzelt/internal/log"
	"nordenzelt/internal/notify"
	"nordenzelt/internal/services"
	"nordenzelt/internal/storage"
	"nordenzelt/internal/worker"
)

// pendingSyncInterval is how often the worker re-scans for events the
// broker path missed.
const pendingSyncInterval = 5 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting nordenzelt-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Calendar mirroring needs both the Google client and the broker.
	var syncWorker *worker.SyncWorker
	if cfg.GoogleCalendarID != "" {
		calendarClient, err := gcal.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Calendar client", "error", err)
			os.Exit(1)
		}
		syncWorker = worker.NewSyncWorker(repo, calendarClient)
		logger.Info("Google Calendar client initialized", "calendar_id", cfg.GoogleCalendarID)
	} else {
		logger.Info("Google Calendar disabled - no GOOGLE_CALENDAR_ID provided")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" && syncWorker != nil {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	}

	links := notify.NewLinkBuilder(cfg.WhatsAppPhone)
	reminders := services.NewReminderService(repo, links, nil)
	reminderWorker := worker.NewReminderWorker(reminders, cfg.ReminderCron)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reminderWorker.Start(ctx)
	})

	if syncWorker != nil {
		// Catch up on anything saved while the worker was down.
		if err := syncWorker.ProcessPending(ctx); err != nil {
			logger.Error("Startup sync check failed", "error", err)
		}

		g.Go(func() error {
			ticker := time.NewTicker(pendingSyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := syncWorker.ProcessPending(ctx); err != nil {
						logger.Error("Periodic sync failed", "error", err)
					}
				}
			}
		})
	}

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.Consume(ctx,
				func(msg *amqp.EventSyncMessage) error {
					return syncWorker.HandleSyncMessage(ctx, msg)
				},
				func(msg *amqp.EventDeleteMessage) error {
					return syncWorker.HandleDeleteMessage(ctx, msg)
				})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
