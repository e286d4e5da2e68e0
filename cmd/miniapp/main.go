package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flipcoin/miniapp/internal/api"
	"github.com/flipcoin/miniapp/internal/app"
	"github.com/flipcoin/miniapp/internal/game"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/infra"
	"github.com/flipcoin/miniapp/internal/platform"
	"github.com/flipcoin/miniapp/internal/profile"
	"github.com/flipcoin/miniapp/internal/service"
	"github.com/flipcoin/miniapp/internal/store"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("miniapp failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Host platform
	var bridge platform.Bridge
	if cfg.ColorScheme != "" {
		bridge = platform.Static{Scheme: platform.ColorScheme(cfg.ColorScheme)}
	}
	scheme := platform.Init(bridge, logger)

	// Profile store
	backend, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()

	profiles := store.NewProfileStore(backend.KV, logger)
	mgr := profile.NewManager(ctx, profiles, logger)
	defer mgr.Close(context.Background())

	// Remote API and game randomness
	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, mgr, logger)
	resolver := game.NewResolver(game.NewRandomOrgSource(cfg.RandomOrgAPIKey, logger))

	// Services
	limits := guard.NewLimitTracker()
	completed := guard.NewCompletedTasks()
	accountSvc := service.NewAccountService(mgr, client, limits, completed, logger)
	gameSvc := service.NewGameService(mgr, client, resolver, limits, logger)
	taskSvc := service.NewTaskService(mgr, client, completed, logger)
	shopSvc := service.NewShopService(mgr, client, logger)

	// Change feed
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	if producer.Enabled() {
		infra.NewChangeFeed(mgr, producer, cfg.KafkaTopic, logger).Start(ctx)
	}

	// Reconcile with the server once at start when a session survived the restart.
	if mgr.Authenticated() {
		if _, err := accountSvc.Refresh(ctx); err != nil {
			logger.Warn("initial profile refresh failed", "error", err)
		}
	}

	r := app.NewRouter(app.RouterDeps{
		Profile:        mgr,
		Account:        accountSvc,
		Games:          gameSvc,
		Tasks:          taskSvc,
		Shop:           shopSvc,
		Logger:         logger,
		ColorScheme:    scheme,
		AllowedOrigins: cfg.AllowedOrigins(),
		HealthChecks:   backend.Checks,
	})

	// Start server. No write timeout: /events streams stay open.
	addr := fmt.Sprintf(":%d", cfg.BridgePort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge server starting", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("bridge stopped gracefully")
	return nil
}
