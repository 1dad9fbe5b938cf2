package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nordenzelt/internal/amqp"
	"nordenzelt/internal/config"
	apphttp "nordenzelt/internal/http"
	applog "nordenzelt/internal/log"
	"nordenzelt/internal/media"
	"nordenzelt/internal/notify"
	"nordenzelt/internal/services"
	"nordenzelt/internal/storage"
	"nordenzelt/internal/store"
	mem "nordenzelt/internal/store/memory"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var st store.Store
	var syncStates services.SyncStateReader

	switch cfg.DataBackend {
	case "memory":
		st = mem.New()
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		st = repo
		syncStates = repo
		logger.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	}
	defer st.Close()

	// AMQP is optional; without it events save locally and the calendar
	// mirror catches up when the worker next scans pending rows.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	links := notify.NewLinkBuilder(cfg.WhatsAppPhone)
	events := services.NewEventService(st, publisher, syncStates)
	reminders := services.NewReminderService(st, links, nil)

	var mediaService *services.MediaService
	if cfg.StorageConfigured() {
		bucket := media.NewClient(cfg.StorageURL, cfg.StorageBucket, cfg.StorageKey)
		mediaService = services.NewMediaService(bucket, st)
		logger.Info("Object storage initialized", "bucket", cfg.StorageBucket)
	} else {
		logger.Info("Object storage disabled - uploads unavailable")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Store:         st,
		Events:        events,
		Media:         mediaService,
		Reminders:     reminders,
		Links:         links,
		AdminPassword: cfg.AdminPassword,
		SessionTTL:    cfg.SessionTTL,
		CacheTTL:      cfg.CacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting nordenzelt server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
