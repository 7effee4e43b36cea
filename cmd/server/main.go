package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gamestracker/internal/aggregator"
	"github.com/gamestracker/internal/cache"
	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/handler"
	"github.com/gamestracker/internal/igdb"
	"github.com/gamestracker/internal/kafka"
	"github.com/gamestracker/internal/opencritic"
	"github.com/gamestracker/internal/postgres"
	"github.com/gamestracker/internal/redis"
	"github.com/gamestracker/internal/service"
	"github.com/gamestracker/internal/websocket"
	"github.com/gamestracker/internal/worker"
)

// snapshotStore is a snapshot backend that can report its health
type snapshotStore interface {
	service.SnapshotStore
	handler.Pinger
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	loadErr := err
	if err != nil {
		cfg = config.DefaultConfig()
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if loadErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", loadErr)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := map[string]handler.Pinger{}

	// Snapshot storage: Redis when enabled so snapshots survive restarts
	var store snapshotStore
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		redisStore, err := redis.NewSnapshotStore(&cfg.Redis, cfg.Feeds.StaleFor, logger)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
		ready["redis"] = redisStore
		logger.Info("connected to Redis")
	} else {
		store = cache.NewMemoryStore(cfg.Feeds.StaleFor)
		logger.Info("using in-memory snapshot store")
	}

	// Notes storage is optional; a nil store disables the notes endpoints
	var noteStore service.NoteStore
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		postgresRepo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer postgresRepo.Close()

		if err := postgresRepo.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		noteStore = postgresRepo
		ready["postgres"] = postgresRepo
		logger.Info("connected to PostgreSQL")
	}

	// Upstream clients
	tokens := igdb.NewTokenCache(igdb.TokenConfig{
		ClientID:     cfg.IGDB.ClientID,
		ClientSecret: cfg.IGDB.ClientSecret,
		TokenURL:     cfg.IGDB.TokenURL,
	}, &http.Client{Timeout: cfg.IGDB.Timeout}, logger)

	catalog := igdb.NewClient(igdb.Config{
		BaseURL:           cfg.IGDB.BaseURL,
		ClientID:          cfg.IGDB.ClientID,
		Timeout:           cfg.IGDB.Timeout,
		RequestsPerSecond: cfg.IGDB.RequestsPerS,
	}, tokens, logger)

	reviews := opencritic.NewClient(opencritic.Config{
		BaseURL: cfg.OpenCritic.BaseURL,
		Host:    cfg.OpenCritic.Host,
		APIKey:  cfg.OpenCritic.APIKey,
		Timeout: cfg.OpenCritic.Timeout,
	}, logger)

	// Initialize services
	feedService := service.NewFeedService(
		reviews,
		aggregator.NewEnricher(catalog, logger),
		store,
		&cfg.Feeds,
		logger,
	)
	releaseService := service.NewReleaseService(
		catalog,
		noteStore,
		store,
		&cfg.Releases,
		cfg.Feeds.StaleFor,
		logger,
	)
	noteService := service.NewNoteService(noteStore, logger)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Keep the feed snapshots warm and push refreshes to subscribers
	feedWarmer := worker.NewFeedWarmer(feedService, wsHub, cfg.Feeds.RefreshInterval, logger)
	if cfg.Feeds.RefreshEnabled {
		if err := feedWarmer.Start(ctx); err != nil {
			logger.Error("failed to start feed warmer", "error", err)
			os.Exit(1)
		}
	}

	// Kafka consumer for bulk note imports
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled && noteService.Enabled() {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, noteService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	httpHandler := handler.NewHandler(handler.Dependencies{
		Feeds:    feedService,
		Releases: releaseService,
		Notes:    noteService,
		Hub:      wsHub,
		Ready:    ready,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	wsHub.Stop()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := feedWarmer.Stop(); err != nil {
		logger.Error("failed to stop feed warmer", "error", err)
	}

	logger.Info("server stopped")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
