package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/config"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/handler"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/jobs"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/messaging"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/middleware"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/repository"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/repository/sqlite"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/service"
)

// stores bundles the repositories of the selected driver.
type stores struct {
	inventory service.InventoryRepository
	groups    service.ServiceGroupRepository
	costs     service.CostRepository
	guides    service.GuideRepository
	ping      handler.Pinger
	close     func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open group store",
			slog.String("driver", cfg.Database.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer func() { _ = st.close() }()

	healthChecks := map[string]handler.Pinger{"database": st.ping}

	// Guide assignment propagation
	var publisher service.AssignmentPublisher = messaging.NewLogPublisher(logger)
	if cfg.Redis.Enabled {
		rdb, err := messaging.ConnectRedis(ctx, messaging.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()

		publisher = messaging.NewRedisStreamPublisher(messaging.RedisStreamPublisherConfig{
			Client: rdb,
			Stream: cfg.Redis.AssignmentStream,
			MaxLen: cfg.Redis.StreamMaxLen,
		})
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// Initialize event hub for SSE
	eventHub := service.NewEventHub()
	defer eventHub.Close()

	// Initialize services
	groupService := service.NewServiceGroupService(service.ServiceGroupServiceConfig{
		InventoryRepo: st.inventory,
		GroupRepo:     st.groups,
		CostRepo:      st.costs,
		GuideRepo:     st.guides,
		Publisher:     publisher,
		Events:        eventHub,
	})

	// Start background jobs
	if cfg.Jobs.TotalsSyncEnabled {
		location, err := cfg.Jobs.Location()
		if err != nil {
			slog.Error("invalid service timezone", slog.String("error", err.Error()))
			os.Exit(1)
		}
		totalsSync := jobs.NewTotalsSyncProcessor(jobs.TotalsSyncConfig{
			Syncer:     groupService,
			Interval:   cfg.Jobs.TotalsSyncInterval,
			Days:       cfg.Jobs.TotalsSyncDays,
			Location:   location,
			StartDelay: 5 * time.Second,
		})
		totalsSync.Start()
		defer totalsSync.Stop()
	}

	// Initialize handlers
	groupHandler := handler.NewServiceGroupHandler(groupService)
	eventsHandler := handler.NewEventsHandler(eventHub)
	healthHandler := handler.NewHealthHandler(healthChecks)

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL: cfg.Idempotency.TTL,
	})
	defer idempotencyStore.Stop()

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	groupHandler.RegisterRoutes(mux)
	eventsHandler.RegisterRoutes(mux)

	// Apply global middleware
	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
	}
	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:  cfg.RateLimit.PerMinute,
			Burst: cfg.RateLimit.Burst,
		})
		defer rateLimiter.Stop()
		chain = append(chain, middleware.RateLimit(rateLimiter))
	}
	chain = append(chain,
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)
	wrapped := middleware.Chain(mux, chain...)

	// Create HTTP server. WriteTimeout stays 0 by default so event streams
	// are not cut off.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("driver", cfg.Database.Driver),
			slog.Bool("redis", cfg.Redis.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Disconnect SSE clients first so Shutdown does not wait on them.
	eventHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("opened sqlite group store", slog.String("path", cfg.SQLitePath))
		return &stores{
			inventory: store,
			groups:    store,
			costs:     store,
			guides:    store,
			ping:      store,
			close:     store.Close,
		}, nil

	default:
		db := database.NewSurrealDB(database.Config{
			Driver:    cfg.Driver,
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, err
		}

		scripts, err := repository.SchemaScripts()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load schema: %w", err)
		}
		for _, script := range scripts {
			if err := db.ApplySchema(ctx, script); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply schema: %w", err)
			}
		}

		slog.Info("connected to database",
			slog.String("host", cfg.Host),
			slog.String("database", cfg.Database),
		)
		return &stores{
			inventory: repository.NewInventoryRepository(db),
			groups:    repository.NewServiceGroupRepository(db),
			costs:     repository.NewCostRepository(db),
			guides:    repository.NewGuideRepository(db),
			ping:      db,
			close:     db.Close,
		}, nil
	}
}
