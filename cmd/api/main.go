package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qr-kitchen/internal/config"
	"qr-kitchen/internal/database"
	"qr-kitchen/internal/feed"
	"qr-kitchen/internal/handler"
	"qr-kitchen/internal/livesync"
	"qr-kitchen/internal/repository"
	"qr-kitchen/internal/router"
	"qr-kitchen/internal/service"
	"qr-kitchen/internal/tenant"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "qr-kitchen")
	logger.Info().Msg("starting qr-kitchen API server")

	// The context ends on SIGINT/SIGTERM and drives every background task.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return err
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	cipher, err := buildCipher(ctx, cfg.Encryption, logger)
	if err != nil {
		return err
	}

	relay, err := buildRelay(ctx, cfg.Feed, logger)
	if err != nil {
		return err
	}
	if relay != nil {
		defer relay.Close()
	}

	hub := feed.NewHub(logger)
	broadcaster := feed.NewBroadcaster(hub, relay, logger)
	resolver := tenant.NewResolver(cfg.Auth.TokenValidity, cfg.Auth.FallbackTenantID)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	restaurantRepo := repository.NewRestaurantRepository(pool, logger)
	stationRepo := repository.NewStationRepository(pool, logger)

	// Initialize services
	orderService := service.NewOrderService(orderRepo, cipher, broadcaster, logger)
	productService := service.NewProductService(productRepo, logger)
	stationService := service.NewStationService(stationRepo, logger)
	restaurantService := service.NewRestaurantService(restaurantRepo, logger)
	authService := service.NewAuthService(restaurantRepo, resolver, logger)

	gateway := livesync.NewGateway(feed.NewPublisher(orderService, logger), hub, livesync.Config{
		PollInterval:      cfg.Feed.PollInterval,
		HeartbeatInterval: cfg.Feed.HeartbeatInterval,
		RetryHint:         cfg.Feed.RetryHint,
	}, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Order:      handler.NewOrderHandler(orderService, logger),
		Stream:     handler.NewStreamHandler(gateway, logger),
		Product:    handler.NewProductHandler(productService, logger),
		Station:    handler.NewStationHandler(stationService, logger),
		Restaurant: handler.NewRestaurantHandler(restaurantService, logger),
		Auth:       handler.NewAuthHandler(authService, logger),
	}, resolver, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Create HTTP server. Request contexts derive from gctx so open streams
	// end when shutdown starts.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return broadcaster.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().
			Int64("open_streams", gateway.Active()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
		return nil
	})

	err = g.Wait()

	// Let in-flight relay publishes finish before the relay is closed.
	broadcaster.Wait()
	return err
}
