package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/feeledger/backend/internal/infrastructure/event"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"github.com/feeledger/backend/internal/infrastructure/mobilemoney"
	"github.com/feeledger/backend/internal/infrastructure/persistence"
	"github.com/feeledger/backend/internal/interfaces/http/handler"
	"github.com/feeledger/backend/internal/interfaces/http/middleware"
	"github.com/feeledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Fee Ledger API
//	@version		1.0
//	@description	Fee ledger and payment reconciliation backend

//	@contact.name	API Support
//	@contact.url	https://github.com/feeledger/backend

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

	log.Info("Starting Fee Ledger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Initialize repositories
	obligationRepo := persistence.NewGormFeeObligationRepository(db.DB)
	recordRepo := persistence.NewGormPaymentRecordRepository(db.DB)
	scheduleRepo := persistence.NewGormFeeScheduleItemRepository(db.DB)
	discountRepo := persistence.NewGormDiscountCodeRepository(db.DB)
	unitOfWork := persistence.NewGormUnitOfWork(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(newEventAuditor(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize mobile-money gateway (if enabled)
	var gateway ledger.PushGateway
	if cfg.Gateway.Enabled {
		adapter, err := mobilemoney.NewDarajaAdapter(&mobilemoney.DarajaConfig{
			ShortCode:            cfg.Gateway.ShortCode,
			ConsumerKey:          cfg.Gateway.ConsumerKey,
			ConsumerSecret:       cfg.Gateway.ConsumerSecret,
			Passkey:              cfg.Gateway.Passkey,
			CallbackURL:          cfg.Gateway.CallbackURL,
			AllowedPhonePrefixes: cfg.Gateway.PhonePrefixes,
			IsSandbox:            cfg.Gateway.Sandbox,
		})
		if err != nil {
			log.Fatal("Failed to configure mobile-money gateway", zap.Error(err))
		}
		gateway = adapter
		log.Info("Mobile-money gateway configured",
			zap.String("gateway", adapter.Name()),
			zap.String("short_code", cfg.Gateway.ShortCode),
			zap.Bool("sandbox", cfg.Gateway.Sandbox),
		)
	} else {
		log.Info("Mobile-money gateway disabled, MOBILE_MONEY declarations will be rejected")
	}

	// Initialize application services
	reconciliationService := ledgerapp.NewReconciliationService(unitOfWork, eventBus, log)
	intakeService := ledgerapp.NewPaymentIntakeService(ledgerapp.PaymentIntakeServiceConfig{
		ObligationRepo: obligationRepo,
		RecordRepo:     recordRepo,
		DiscountRepo:   discountRepo,
		Gateway:        gateway,
		EventPublisher: eventBus,
		Logger:         log,
	})
	approvalService := ledgerapp.NewApprovalService(recordRepo, reconciliationService, log)
	enrollmentService := ledgerapp.NewEnrollmentService(obligationRepo, scheduleRepo, eventBus, log)
	queryService := ledgerapp.NewLedgerQueryService(obligationRepo, recordRepo, log)
	scheduleService := ledgerapp.NewScheduleService(scheduleRepo, discountRepo, log)

	// Initialize HTTP handlers
	paymentHandler := handler.NewPaymentHandler(intakeService, queryService, cfg.Ledger.StalePendingAfter)
	approvalHandler := handler.NewApprovalHandler(approvalService, queryService)
	ledgerHandler := handler.NewLedgerHandler(queryService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tenant - Resolve the acting tenant
	// 8. Operator - Resolve the acting operator and their grants
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tenant and operator context. The push callback carries neither: the
	// gateway posts anonymously and the record is resolved by correlation ID.
	publicPaths := []string{
		"/health",
		"/api/v1/ping",
		"/api/v1/system/ping",
		"/api/v1/system/info",
		"/api/v1/payments/callback",
	}
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, publicPaths...)
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	operatorConfig := middleware.DefaultOperatorConfig()
	operatorConfig.SkipPathPrefixes = []string{"/api/v1/payments/callback"}
	operatorConfig.Logger = log
	engine.Use(middleware.OperatorContextWithConfig(operatorConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Ledger domain (obligations, enrollments, fee schedule, discount codes)
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.GET("/obligations", ledgerHandler.ListObligations)
	ledgerRoutes.GET("/obligations/overdue", ledgerHandler.ListOverdueObligations)
	ledgerRoutes.GET("/obligations/:id", ledgerHandler.GetObligation)
	ledgerRoutes.GET("/parties/:party_id/statement", ledgerHandler.GetPartyStatement)
	ledgerRoutes.GET("/summary", ledgerHandler.GetTenantSummary)
	ledgerRoutes.POST("/enrollments", enrollmentHandler.EnrollParty)
	ledgerRoutes.POST("/schedule-items", scheduleHandler.CreateScheduleItem)
	ledgerRoutes.GET("/schedule-items", scheduleHandler.ListScheduleItems)
	ledgerRoutes.DELETE("/schedule-items/:id", scheduleHandler.DeactivateScheduleItem)
	ledgerRoutes.POST("/discount-codes", scheduleHandler.CreateDiscountCode)
	ledgerRoutes.GET("/discount-codes/preview", scheduleHandler.PreviewDiscount)
	ledgerRoutes.DELETE("/discount-codes/:code", scheduleHandler.DeactivateDiscountCode)

	// Payments domain (intake, records, approval workflow, gateway callback)
	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("", paymentHandler.DeclarePayment)
	paymentRoutes.GET("", paymentHandler.ListRecords)
	paymentRoutes.GET("/stale", paymentHandler.ListStalePending)
	paymentRoutes.GET("/:id", paymentHandler.GetRecord)
	paymentRoutes.POST("/:id/approve", approvalHandler.ApproveRecord)
	paymentRoutes.POST("/:id/reject", approvalHandler.RejectRecord)
	paymentRoutes.POST("/bulk-approve", approvalHandler.BulkApprove)
	paymentRoutes.POST("/bulk-reject", approvalHandler.BulkReject)

	// Gateway callback endpoint. Only mounted when a gateway is configured:
	// without one no push can have been initiated, so any callback is noise.
	if gateway != nil {
		callbackService := ledgerapp.NewPushCallbackService(ledgerapp.PushCallbackServiceConfig{
			Gateway:           gateway,
			RecordRepo:        recordRepo,
			ReconciliationSvc: reconciliationService,
			Logger:            log,
		})
		callbackHandler := handler.NewPushCallbackHandler(callbackService, log)
		paymentRoutes.POST("/callback", callbackHandler.HandleCallback)
	}

	// System routes
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(ledgerRoutes).
		Register(paymentRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// eventAuditor logs every domain event published on the bus, keeping an
// audit trail of ledger mutations without coupling services to each other.
type eventAuditor struct {
	logger *zap.Logger
}

func newEventAuditor(logger *zap.Logger) *eventAuditor {
	return &eventAuditor{logger: logger}
}

func (a *eventAuditor) Handle(_ context.Context, e shared.DomainEvent) error {
	a.logger.Info("Domain event",
		zap.String("event_type", e.EventType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
	)
	return nil
}

// EventTypes returns no filter so the auditor receives all events.
func (a *eventAuditor) EventTypes() []string { return nil }
