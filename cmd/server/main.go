package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/stockbill/backend/internal/application/billing"
	inventoryapp "github.com/stockbill/backend/internal/application/inventory"
	notificationapp "github.com/stockbill/backend/internal/application/notification"
	partnerapp "github.com/stockbill/backend/internal/application/partner"
	"github.com/stockbill/backend/internal/domain/notification"
	"github.com/stockbill/backend/internal/infrastructure/cache"
	"github.com/stockbill/backend/internal/infrastructure/config"
	"github.com/stockbill/backend/internal/infrastructure/logger"
	"github.com/stockbill/backend/internal/infrastructure/persistence"
	"github.com/stockbill/backend/internal/interfaces/http/handler"
	"github.com/stockbill/backend/internal/interfaces/http/middleware"
	"github.com/stockbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stockbill backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	batchRepo := persistence.NewGormStockBatchRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB, cfg.Billing.NumberPrefix)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)

	// Transaction scopes
	billingScope := persistence.NewGormTransactionScope(db.DB, cfg.Billing.NumberPrefix)
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB)

	// Stock notifications are reconciled after every quantity change
	stockMonitor := notification.NewStockMonitor(notificationRepo)

	// Idempotency store: Redis when reachable, in-memory otherwise
	idempotencyStore := cache.NewIdempotencyStore(&cfg.Redis, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	productService := inventoryapp.NewProductService(
		inventoryScope, productRepo, batchRepo, stockMonitor,
		cfg.Inventory.DefaultReorderLevel, log)
	batchService := inventoryapp.NewBatchService(
		inventoryScope, productRepo, batchRepo, stockMonitor,
		cfg.Inventory.DefaultReorderLevel, log)
	billService := billingapp.NewBillService(billingScope, billRepo, stockMonitor, log)
	billService.SetIdempotencyStore(idempotencyStore, cfg.Billing.IdempotencyTTL)
	customerService := partnerapp.NewCustomerService(customerRepo, billRepo, log)
	notificationService := notificationapp.NewNotificationService(
		notificationRepo, cfg.Notification.Retention, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	handler.NewSystemHandler(db, cfg.App.Name, version).RegisterRoutes(engine)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewProductHandler(productService, batchService))
	r.Register(handler.NewBatchHandler(batchService))
	r.Register(handler.NewBillHandler(billService))
	r.Register(handler.NewCustomerHandler(customerService))
	r.Register(handler.NewNotificationHandler(notificationService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Periodic retention purge for read notifications
	purgeCtx, cancelPurge := context.WithCancel(context.Background())
	defer cancelPurge()
	go runNotificationPurge(purgeCtx, notificationService, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// runNotificationPurge deletes read notifications past the retention window
// once a day until ctx is cancelled
func runNotificationPurge(ctx context.Context, svc *notificationapp.NotificationService, log *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Purge(ctx); err != nil {
				log.Warn("Notification purge failed", zap.Error(err))
			}
		}
	}
}
