package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"clicktrail/internal/config"
	"clicktrail/internal/handlers"
	"clicktrail/internal/ingress"
	"clicktrail/internal/repository"
	"clicktrail/internal/services"
	"clicktrail/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Run Migrations
	logger.Info("Running database migrations...")
	if err := repository.Migrate(db, cfg, ""); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Initialize Redis (optional, only backs the link cache)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, link cache disabled", "error", err)
			rdb = nil
		}
	}

	adapter, err := ingress.ForProfile(cfg.IngressProfile, cfg.IngressIPHeaders)
	if err != nil {
		return fmt.Errorf("invalid ingress configuration: %w", err)
	}

	// Background Context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var workers sync.WaitGroup
	startWorker := func(run func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			run(workerCtx)
		}()
	}

	// 6. Initialize Services
	linkStore := repository.NewLinkStore(db)
	clickStore := repository.NewClickStore(db)
	rollupStore := repository.NewRollupStore(db)

	geoLookup, err := newGeoLookup(workerCtx, cfg, logger, startWorker)
	if err != nil {
		return err
	}
	geoResolver := services.NewGeoResolver(geoLookup, cfg.GeoTimeout, logger)
	tracker := services.NewClickTracker(clickStore, clickStore, rollupStore, geoResolver, cfg.DedupWindow, logger)

	var sink services.ClickSink
	switch cfg.ClickRecording {
	case "sync":
		sink = services.NewSyncSink(tracker, logger)
	case "async", "":
		statsService := services.NewStatsService(tracker, logger, cfg.ClickBufferSize, cfg.ClickWorkers)
		startWorker(statsService.Start)
		sink = statsService
	default:
		return fmt.Errorf("unknown CLICK_RECORDING %q", cfg.ClickRecording)
	}

	linkCache := services.NewLinkCache(linkStore, rdb, cfg.LinkCacheTTL, logger)
	resolver := services.NewRedirectResolver(linkCache, sink, services.ResolverConfig{}, logger)

	auditService := services.NewAuditService(db, logger)
	startWorker(auditService.Start)
	shortenerService := services.NewShortenerService(linkStore, clickStore, rollupStore, linkCache, auditService, cfg.PasswordScheme)
	qrService := services.NewQRService(cfg.PublicBaseURL)

	rollupJob := services.NewRollupJob(rollupStore, logger)
	if err := rollupJob.Schedule(cfg.RollupRebuildCron); err != nil {
		return err
	}
	startWorker(rollupJob.Start)

	rateLimiter := services.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, logger)
	rateLimiter.StartCleanup(workerCtx, 10*time.Minute)

	if cfg.AdminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY not set, management API disabled", "suggested_key", utils.GenerateAPIKey())
	}

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, adapter, resolver, shortenerService, qrService)

	// 8. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(rateLimiter)

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "ingress_profile", cfg.IngressProfile, "click_recording", cfg.ClickRecording)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// The stats worker drains queued clicks before returning
	workerCancel()
	workers.Wait()

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("Server exiting")
	return runErr
}

// newGeoLookup picks the configured provider. "none" leaves only platform
// hints and the fallback location.
func newGeoLookup(ctx context.Context, cfg config.Config, logger *slog.Logger, startWorker func(func(context.Context))) (services.GeoLookup, error) {
	switch cfg.GeoProvider {
	case "http":
		return services.NewHTTPGeoLookup(cfg.GeoAPIURL), nil
	case "maxmind":
		lookup := services.NewMaxMindLookup(cfg, logger)
		go lookup.Init(ctx)
		startWorker(lookup.StartUpdater)
		return lookup, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown GEO_PROVIDER %q", cfg.GeoProvider)
	}
}
