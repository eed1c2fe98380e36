package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/config"
	"github.com/amitpo23/medici-pricing/internal/database"
	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/experiments"
	"github.com/amitpo23/medici-pricing/internal/inventory"
	"github.com/amitpo23/medici-pricing/internal/notify"
	"github.com/amitpo23/medici-pricing/internal/opportunity"
	"github.com/amitpo23/medici-pricing/internal/optimizer"
	"github.com/amitpo23/medici-pricing/internal/pricing"
	"github.com/amitpo23/medici-pricing/internal/rules"
	"github.com/amitpo23/medici-pricing/internal/scheduler"
	"github.com/amitpo23/medici-pricing/internal/server"
	"github.com/amitpo23/medici-pricing/internal/signals"
	"github.com/amitpo23/medici-pricing/internal/signals/ratefeed"
	"github.com/amitpo23/medici-pricing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Medici Pricing")

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tuning configuration")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.InitSchemas(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schemas")
	}

	// Base context for background jobs; cancelled on shutdown so a
	// mid-flight optimization pass stops between items.
	baseCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// Recommendation cache: Redis when configured, process-local otherwise
	var cache pricing.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = pricing.NewRedisCache(rdb, tuning.Pricing.CacheTTL, log)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis recommendation cache")
	} else {
		cache = pricing.NewMemoryCache(tuning.Pricing.CacheTTL)
	}

	// Notification sink: webhook when configured, log-only otherwise
	var notifier domain.NotificationSink
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookSink(cfg.WebhookURL, log)
	} else {
		notifier = notify.NewLogSink(log)
	}

	// Core components
	provider := signals.NewProvider(db.Conn(), log)
	pricer := pricing.NewEngine(provider, cache, tuning.Pricing, log)
	inventoryRepo := inventory.NewRepository(db.Conn(), log)
	experimentRepo := experiments.NewRepository(db.Conn(), log)
	scorer := opportunity.NewScorer(pricer, inventoryRepo, tuning.Opportunity, log)
	ruleEngine := rules.NewEngine(inventoryRepo, pricer, notifier, tuning.Rules, log)
	worker := optimizer.NewWorker(inventoryRepo, experimentRepo, pricer, notifier, tuning.Optimizer, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := registerJobs(sched, baseCtx, worker, inventoryRepo, db, cfg, tuning, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Pricer:    pricer,
		Scorer:    scorer,
		Rules:     ruleEngine,
		Worker:    worker,
		Inventory: inventoryRepo,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancelJobs()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	base context.Context,
	worker *optimizer.Worker,
	store domain.InventoryStore,
	db *database.DB,
	cfg *config.Config,
	tuning config.Tuning,
	log zerolog.Logger,
) error {
	schedule := fmt.Sprintf("@every %s", tuning.Optimizer.Interval)
	if err := sched.AddJob(schedule, optimizer.NewJob(base, worker)); err != nil {
		return fmt.Errorf("failed to register optimization job: %w", err)
	}

	// Competitor rate sync only runs when a feed is configured
	if cfg.RateFeedURL != "" {
		ingestor := ratefeed.NewIngestor(db.Conn(), ratefeed.NewClient(cfg.RateFeedURL, log), log)
		job := scheduler.NewRateSyncJob(scheduler.RateSyncConfig{
			Base:      base,
			Inventory: store,
			Ingestor:  ingestor,
			Log:       log,
		})
		if err := sched.AddJob("@hourly", job); err != nil {
			return fmt.Errorf("failed to register rate sync job: %w", err)
		}
	}

	return nil
}
