package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	incidentapp "github.com/muniworks/backend/internal/application/incident"
	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	materialapp "github.com/muniworks/backend/internal/application/material"
	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/infrastructure/auth"
	"github.com/muniworks/backend/internal/infrastructure/cache"
	"github.com/muniworks/backend/internal/infrastructure/config"
	"github.com/muniworks/backend/internal/infrastructure/event"
	"github.com/muniworks/backend/internal/infrastructure/logger"
	"github.com/muniworks/backend/internal/infrastructure/persistence"
	"github.com/muniworks/backend/internal/interfaces/http/handler"
	"github.com/muniworks/backend/internal/interfaces/http/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	idempotencyStore, err := newIdempotencyStore(cfg, log)
	if err != nil {
		return fmt.Errorf("creating idempotency store: %w", err)
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Repositories
	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	txRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	incidentRepo := persistence.NewGormIncidentRepository(db.DB)
	materialRepo := persistence.NewGormMaterialRequestRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRequestRepository(db.DB)

	// Application services
	guard := authz.NewGuard()
	inventoryService := inventoryapp.NewInventoryService(itemRepo, txRepo, guard)
	incidentService := incidentapp.NewIncidentService(incidentRepo, guard)
	purchaseService := procurementapp.NewPurchaseService(purchaseRepo, itemRepo, inventoryService, guard)
	fulfillmentService := materialapp.NewFulfillmentService(
		materialRepo, purchaseRepo, itemRepo, inventoryService, purchaseService, guard)

	// Event bus: handlers are deduplicated by event ID so republished
	// events cannot double-apply
	bus := event.NewInMemoryEventBus(log)
	handlers := event.WrapHandlersWithIdempotency([]shared.EventHandler{
		materialapp.NewPurchaseDeliveredHandler(fulfillmentService, log),
		inventoryapp.NewStockBelowThresholdHandler(log),
	}, idempotencyStore, log)
	for _, h := range handlers {
		bus.Subscribe(h, h.EventTypes()...)
	}

	inventoryService.SetEventPublisher(bus)
	incidentService.SetEventPublisher(bus)
	purchaseService.SetEventPublisher(bus)
	fulfillmentService.SetEventPublisher(bus)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("starting event bus: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := router.New(router.Options{
		Config:           cfg,
		Logger:           log,
		JWTService:       jwtService,
		IdempotencyStore: idempotencyStore,
		Registrars: []router.RouteRegistrar{
			handler.NewIncidentHandler(incidentService, log),
			handler.NewInventoryHandler(inventoryService, log),
			handler.NewMaterialHandler(fulfillmentService, purchaseService, log),
			handler.NewPurchaseHandler(purchaseService, log),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown", zap.Error(err))
	}

	log.Info("stopped")
	return nil
}

func newIdempotencyStore(cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("using redis idempotency store", zap.String("host", cfg.Redis.Host))
		return store, nil
	}

	log.Info("using in-memory idempotency store")
	return cache.NewInMemoryIdempotencyStore(), nil
}
