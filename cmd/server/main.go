package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventapp "github.com/orderflow/backend/internal/application/event"
	settlementapp "github.com/orderflow/backend/internal/application/settlement"
	workflowapp "github.com/orderflow/backend/internal/application/workflow"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/cache"
	"github.com/orderflow/backend/internal/infrastructure/config"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/orderflow/backend/internal/infrastructure/logger"
	"github.com/orderflow/backend/internal/infrastructure/persistence"
	"github.com/orderflow/backend/internal/infrastructure/tasks"
	"github.com/orderflow/backend/internal/infrastructure/telemetry"
	"github.com/orderflow/backend/internal/interfaces/http/handler"
	"github.com/orderflow/backend/internal/interfaces/http/middleware"
	"github.com/orderflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Orderflow Backend API
//	@version		1.0
//	@description	Order workflow and settlement ledger backend

//	@contact.name	API Support
//	@contact.url	https://github.com/orderflow/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Orderflow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database tracing (otelgorm) if enabled
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Query metrics and connection pool gauges
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.Enabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Business metrics: receivables book gauges plus order/payment counters
	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:               meterProvider.Meter("orderflow/business"),
			Logger:              log,
			ReceivablesProvider: telemetry.NewGormReceivablesMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(context.Background(), cfg.Telemetry.MetricsInterval)
		defer businessMetrics.Stop()
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	workflowEventRepo := persistence.NewGormWorkflowEventRepository(db.DB)
	orderReturnRepo := persistence.NewGormOrderReturnRepository(db.DB)
	paymentRecordRepo := persistence.NewGormPaymentRecordRepository(db.DB)
	paymentTransactionRepo := persistence.NewGormPaymentTransactionRepository(db.DB)
	clientBalanceRepo := persistence.NewGormClientBalanceRepository(db.DB)
	settlementSessionRepo := persistence.NewGormSettlementSessionRepository(db.DB)

	// Transaction manager shared by all services
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Initialize application services
	orderService := workflowapp.NewOrderService(orderRepo, workflowEventRepo, txManager, log)
	returnService := workflowapp.NewReturnService(orderRepo, orderReturnRepo, log)
	settlementService := settlementapp.NewSettlementService(
		paymentRecordRepo,
		paymentTransactionRepo,
		clientBalanceRepo,
		settlementSessionRepo,
		orderReturnRepo,
		txManager,
		log,
	)
	balanceService := settlementapp.NewBalanceService(clientBalanceRepo, paymentTransactionRepo, txManager, log)

	if businessMetrics != nil {
		orderService.SetBusinessMetrics(businessMetrics)
		settlementService.SetBusinessMetrics(businessMetrics)
	}

	// Production task dispatch (best effort webhook to the production board)
	if cfg.Tasks.Enabled {
		taskDispatcher := tasks.NewHTTPTaskDispatcher(cfg.Tasks, log)
		orderService.SetTaskDispatcher(taskDispatcher)
		log.Info("Production task dispatch enabled", zap.String("endpoint", cfg.Tasks.Endpoint))
	}

	// Idempotency store for payment and settlement submissions and for
	// deduplicating redelivered events
	var idemStore shared.IdempotencyStore
	idemConfig := shared.IdempotencyConfig{Enabled: true, TTL: cfg.Idempotency.TTL}
	if cfg.Idempotency.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
			idemStore = cache.NewInMemoryIdempotencyStore()
		} else {
			defer func() {
				if err := redisStore.Close(); err != nil {
					log.Error("Error closing idempotency store", zap.Error(err))
				}
			}()
			idemStore = redisStore
			log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
		}
		settlementService.SetIdempotencyStore(idemStore, idemConfig)
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Order delivered -> open payment record for settlement. The outbox
	// relay delivers at least once, so the handler is wrapped with event
	// deduplication when a store is available.
	orderDeliveredHandler := settlementapp.NewOrderDeliveredHandler(paymentRecordRepo, clientBalanceRepo, log)
	var deliveredHandler shared.EventHandler = orderDeliveredHandler
	if idemStore != nil {
		deliveredHandler = event.NewIdempotentHandler(orderDeliveredHandler, idemStore, log,
			event.WithIdempotencyConfig(idemConfig),
		)
	}
	eventBus.Subscribe(deliveredHandler, orderDeliveredHandler.EventTypes()...)

	// Relay domain events to Redis Pub/Sub as change notifications for UIs
	if cfg.Notifications.Enabled {
		changeNotifier, err := cache.NewRedisChangeNotifier(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
			cache.WithNotifierChannel(cfg.Notifications.Channel),
			cache.WithNotifierLogger(log),
		)
		if err != nil {
			log.Warn("Redis unavailable, change notifications disabled", zap.Error(err))
		} else {
			defer func() {
				if err := changeNotifier.Close(); err != nil {
					log.Error("Error closing change notifier", zap.Error(err))
				}
			}()
			eventBus.Subscribe(changeNotifier)
			log.Info("Change notifications enabled", zap.String("channel", cfg.Notifications.Channel))
		}
	}

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Transactional outbox for order events. Events are written to the
	// outbox table in the same transaction as the order, and a background
	// processor relays them to the event bus with retries.
	var outboxService *eventapp.OutboxService
	if cfg.Outbox.Enabled {
		outboxRepo := event.NewGormOutboxRepository(db.DB)

		eventSerializer := event.NewVersionedSerializer(log)
		event.RegisterAllEvents(eventSerializer)

		outboxPublisher := event.NewOutboxPublisher(eventSerializer)
		orderRepo.SetOutboxEventSaver(outboxPublisher)

		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Outbox.BatchSize
		processorConfig.PollInterval = cfg.Outbox.PollInterval
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()

		outboxService = eventapp.NewOutboxService(outboxRepo, log)
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Inject event bus into services that publish events. Order events go
	// through the outbox when it is enabled, so the direct publisher is
	// only set on the order service otherwise.
	if !cfg.Outbox.Enabled {
		orderService.SetEventPublisher(eventBus)
	}
	returnService.SetEventPublisher(eventBus)
	settlementService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	orderReturnHandler := handler.NewOrderReturnHandler(returnService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Metrics - HTTP request metrics
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Workflow domain (orders and the stage machine)
	orderRoutes := router.NewDomainGroup("workflow", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/number/:number", orderHandler.GetByNumber)
	orderRoutes.GET("/:id", orderHandler.Get)
	orderRoutes.POST("/:id/transition", orderHandler.Transition)
	orderRoutes.PUT("/:id/driver", orderHandler.AssignDriver)
	orderRoutes.PUT("/:id/notes", orderHandler.UpdateNotes)
	orderRoutes.GET("/:id/events", orderHandler.ListEvents)
	orderRoutes.GET("/:id/returns", orderReturnHandler.ListByOrder)
	orderRoutes.GET("/:id/adjusted-total", orderReturnHandler.AdjustedTotal)

	// Returns domain
	returnRoutes := router.NewDomainGroup("returns", "/returns")
	returnRoutes.POST("", orderReturnHandler.Record)
	returnRoutes.GET("/:id", orderReturnHandler.Get)

	// Settlement domain (payments, sessions, debt)
	settlementRoutes := router.NewDomainGroup("settlement", "/settlements")
	settlementRoutes.POST("", settlementHandler.Settle)
	settlementRoutes.POST("/payments", settlementHandler.ApplyPayment)
	settlementRoutes.POST("/adjustments", settlementHandler.RecordAdjustment)
	settlementRoutes.GET("/orders/:id", settlementHandler.GetRecordByOrder)
	settlementRoutes.POST("/orders/:id/forgive", settlementHandler.ForgiveDebt)
	settlementRoutes.GET("/sessions/:id", settlementHandler.GetSession)

	// Client views (balance, ledger, outstanding orders)
	clientRoutes := router.NewDomainGroup("clients", "/clients")
	clientRoutes.GET("/:id/balance", balanceHandler.Get)
	clientRoutes.POST("/:id/balance/recompute", balanceHandler.Recompute)
	clientRoutes.GET("/:id/transactions", balanceHandler.ListTransactions)
	clientRoutes.GET("/:id/outstanding", settlementHandler.ListOutstanding)
	clientRoutes.GET("/:id/settlements", settlementHandler.ListSessions)
	clientRoutes.GET("/:id/returns", orderReturnHandler.ListByClient)

	// Balance aggregates
	balanceRoutes := router.NewDomainGroup("balances", "/balances")
	balanceRoutes.GET("/debtors", balanceHandler.ListDebtors)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Outbox admin routes (only when the outbox is enabled)
	if outboxService != nil {
		outboxHandler := handler.NewOutboxHandler(outboxService)
		systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
		systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
		systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)
		systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
		systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	}

	// Register all domain groups
	r.Register(orderRoutes).
		Register(returnRoutes).
		Register(settlementRoutes).
		Register(clientRoutes).
		Register(balanceRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
