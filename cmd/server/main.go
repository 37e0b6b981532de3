package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	alertapp "github.com/mrp/backend/internal/application/alert"
	catalogapp "github.com/mrp/backend/internal/application/catalog"
	inventoryapp "github.com/mrp/backend/internal/application/inventory"
	planningapp "github.com/mrp/backend/internal/application/planning"
	recipeapp "github.com/mrp/backend/internal/application/recipe"
	domainshared "github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/infrastructure/cache"
	"github.com/mrp/backend/internal/infrastructure/config"
	"github.com/mrp/backend/internal/infrastructure/event"
	"github.com/mrp/backend/internal/infrastructure/logger"
	"github.com/mrp/backend/internal/infrastructure/persistence"
	"github.com/mrp/backend/internal/infrastructure/scheduler"
	"github.com/mrp/backend/internal/infrastructure/storage"
	"github.com/mrp/backend/internal/infrastructure/telemetry"
	"github.com/mrp/backend/internal/interfaces/http/handler"
	"github.com/mrp/backend/internal/interfaces/http/middleware"
	"github.com/mrp/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/mrp/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			MRP Backend API
//	@version		1.0
//	@description	Multi-tenant BOM and production planning backend with a stock ledger
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/mrp/backend
//	@contact.email	support@mrp.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

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

	log.Info("Starting MRP Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize OpenTelemetry (no-op providers when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
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
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
	}()

	// Continuous profiling (Pyroscope)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilerEnabled,
		ServerAddress:       cfg.Telemetry.ProfilerServerAddress,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Warn("Failed to start continuous profiler", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Warn("Profiler shutdown failed", zap.Error(err))
			}
		}()
		// Attach span_id pprof labels once the profiler session is live
		if profiler.IsEnabled() {
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to enable span profiles", zap.Error(err))
			}
		}
	}

	// Initialize database with zap-backed GORM logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLogger := logger.NewGormLogger(log, gormLogLevel,
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	// Database query tracing (spans per query, slow query marking)
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing plugin", zap.Error(err))
		}
	}

	// Database query metrics and connection pool gauges
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.Enabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	materialRepo := persistence.NewGormMaterialRepository(db.DB)
	transactionRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	recipeRepo := persistence.NewGormRecipeRepository(db.DB)
	attachmentRepo := persistence.NewGormRecipeAttachmentRepository(db.DB)
	alertRepo := persistence.NewGormStockAlertRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Object storage for recipe attachments
	var objectStorage recipeapp.ObjectStorageService
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("Object storage enabled",
			zap.String("endpoint", cfg.Storage.Endpoint),
			zap.String("bucket", cfg.Storage.Bucket),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Info("Object storage disabled, attachment uploads will be rejected")
	}

	// Initialize domain event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	recipeService := recipeapp.NewRecipeService(recipeRepo, productRepo, materialRepo)

	attachmentService := recipeapp.NewAttachmentService(attachmentRepo, recipeRepo, objectStorage, log)
	attachmentService.SetConfig(recipeapp.AttachmentServiceConfig{
		UploadURLExpiry:         cfg.Storage.UploadURLExpiry,
		DownloadURLExpiry:       cfg.Storage.DownloadURLExpiry,
		MaxAttachmentsPerRecipe: cfg.Storage.MaxAttachmentsPerRecipe,
	})

	ledgerService := inventoryapp.NewStockLedgerService(materialRepo, transactionRepo, recipeRepo, txScope)
	ledgerService.SetEventPublisher(eventBus)

	// Replay protection for stock adjustments carrying an idempotency key.
	// Redis-backed when reachable, in-memory otherwise.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Warn("Idempotency store unavailable, replay protection disabled", zap.Error(err))
	} else {
		ledgerService.SetIdempotencyStore(idempotencyStore, domainshared.DefaultIdempotencyConfig())
	}

	importService := inventoryapp.NewMaterialImportService(materialRepo, txScope, eventBus)

	calcService := planningapp.NewInventoryCalculationService(productRepo, recipeRepo, materialRepo)
	batchService := planningapp.NewBatchProductionService(productRepo, recipeRepo, materialRepo)

	alertService := alertapp.NewStockAlertService(alertRepo, materialRepo, transactionRepo, batchService, log)
	alertService.SetConfig(alertapp.StockAlertServiceConfig{
		ConsumptionWindowDays: cfg.Alerts.ConsumptionWindowDays,
	})
	alertService.SetEventPublisher(eventBus)

	// Re-evaluate alerts whenever a ledger entry moves stock. The handler is
	// wrapped for replay protection so redelivered events never double-fire.
	var stockAdjustedHandler domainshared.EventHandler = alertapp.NewStockAdjustedHandler(alertService, log)
	if idempotencyStore != nil {
		stockAdjustedHandler = event.NewIdempotentHandler(stockAdjustedHandler, idempotencyStore, log)
	}
	eventBus.Subscribe(stockAdjustedHandler, stockAdjustedHandler.EventTypes()...)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Failed to stop event bus", zap.Error(err))
		}
	}()

	// Background alert scanning
	if cfg.Scheduler.Enabled {
		scanExecutor := alertapp.NewScanExecutor(alertService, log)
		jobScheduler := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, scanExecutor, log)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := jobScheduler.Stop(stopCtx); err != nil {
				log.Error("Failed to stop scheduler", zap.Error(err))
			}
		}()

		scanTrigger := scheduler.NewAlertScanTrigger(scheduler.AlertScanTriggerConfig{
			Enabled:  true,
			Interval: cfg.Alerts.ScanInterval,
		}, jobScheduler, log)
		if err := scanTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start alert scan trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := scanTrigger.Stop(stopCtx); err != nil {
				log.Error("Failed to stop alert scan trigger", zap.Error(err))
			}
		}()
		log.Info("Alert scan scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("scan_interval", cfg.Alerts.ScanInterval),
		)
	}

	// Stock health gauges collected per tenant
	if cfg.Telemetry.Enabled {
		productionMetrics, err := telemetry.NewProductionMetrics(telemetry.ProductionMetricsConfig{
			Meter:         meterProvider.Meter("mrp.production"),
			Logger:        log,
			StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize production metrics", zap.Error(err))
		} else {
			productionMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), 0)
			defer productionMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService)
	inventoryHandler := handler.NewInventoryHandler(ledgerService, calcService)
	importHandler := handler.NewMaterialImportHandler(importService)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	attachmentHandler := handler.NewRecipeAttachmentHandler(attachmentService)
	planningHandler := handler.NewPlanningHandler(calcService, batchService)
	alertHandler := handler.NewAlertHandler(alertService)

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
	// 7. Tracing/Metrics - OpenTelemetry instrumentation (if enabled)
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// OpenTelemetry HTTP instrumentation
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("mrp.http"), true))
	}

	// Pyroscope labels per request (controller, route, tenant)
	if cfg.Telemetry.ProfilerEnabled {
		engine.Use(middleware.Profiling())
	}

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Tenant identification for all API routes
	tenantAuth := middleware.TenantAuth(middleware.TenantAuthConfig{
		Secret:      cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		DevTenantID: cfg.JWT.DevTenantID,
		SkipPaths: []string{
			"/health",
			"/swagger",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	})

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, tenantAuth),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(tenantAuth)

	// Inventory domain (materials, stock ledger, import)
	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.POST("/materials", inventoryHandler.CreateMaterial)
	inventoryRoutes.GET("/materials", inventoryHandler.ListMaterials)
	inventoryRoutes.GET("/materials/low-stock", inventoryHandler.ListLowStockMaterials)
	inventoryRoutes.GET("/materials/sku/:sku", inventoryHandler.GetMaterialBySKU)
	inventoryRoutes.GET("/materials/:id", inventoryHandler.GetMaterial)
	inventoryRoutes.PUT("/materials/:id", inventoryHandler.UpdateMaterial)
	inventoryRoutes.DELETE("/materials/:id", inventoryHandler.ArchiveMaterial)
	inventoryRoutes.POST("/materials/:id/restore", inventoryHandler.RestoreMaterial)
	inventoryRoutes.GET("/materials/:id/deletable", inventoryHandler.CheckDeletable)
	inventoryRoutes.GET("/materials/:id/transactions", inventoryHandler.ListMaterialTransactions)
	inventoryRoutes.POST("/stock/adjust", inventoryHandler.AdjustStock)
	inventoryRoutes.GET("/transactions", inventoryHandler.ListTransactions)
	inventoryRoutes.GET("/transactions/:id", inventoryHandler.GetTransaction)
	inventoryRoutes.POST("/import/materials", importHandler.Import)

	// Catalog domain (finished products)
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.POST("/products", productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/sku/:sku", productHandler.GetBySKU)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", productHandler.Update)
	catalogRoutes.DELETE("/products/:id", productHandler.Archive)
	catalogRoutes.POST("/products/:id/restore", productHandler.Restore)

	// Recipe domain (BOM definitions, components, attachments)
	recipeRoutes := router.NewDomainGroup("recipes", "/recipes")
	recipeRoutes.POST("", recipeHandler.Create)
	recipeRoutes.GET("", recipeHandler.List)
	recipeRoutes.GET("/:id", recipeHandler.GetByID)
	recipeRoutes.PUT("/:id", recipeHandler.Update)
	recipeRoutes.DELETE("/:id", recipeHandler.Archive)
	recipeRoutes.POST("/:id/restore", recipeHandler.Restore)
	recipeRoutes.POST("/:id/activate", recipeHandler.Activate)
	recipeRoutes.POST("/:id/components", recipeHandler.AddComponent)
	recipeRoutes.PUT("/:id/components/:component_id", recipeHandler.UpdateComponent)
	recipeRoutes.DELETE("/:id/components/:component_id", recipeHandler.RemoveComponent)
	recipeRoutes.POST("/:id/attachments", attachmentHandler.InitiateUpload)
	recipeRoutes.POST("/:id/attachments/:attachment_id/confirm", attachmentHandler.ConfirmUpload)
	recipeRoutes.GET("/:id/attachments", attachmentHandler.ListByRecipe)
	recipeRoutes.DELETE("/:id/attachments/:attachment_id", attachmentHandler.Delete)

	// Planning domain (availability, feasibility, batch calculations)
	planningRoutes := router.NewDomainGroup("planning", "/planning")
	planningRoutes.GET("/products/:id/availability", planningHandler.GetAvailability)
	planningRoutes.GET("/products/:id/feasibility", planningHandler.CheckFeasibility)
	planningRoutes.GET("/products/:id/requirements", planningHandler.GetRequirements)
	planningRoutes.GET("/products/:id/batch-size", planningHandler.GetOptimalBatchSize)
	planningRoutes.POST("/availability/bulk", planningHandler.BulkAvailability)
	planningRoutes.POST("/batch/requirements", planningHandler.BatchRequirements)
	planningRoutes.POST("/batch/multi-product", planningHandler.MultiProductBatch)
	planningRoutes.POST("/batch/simulate", planningHandler.SimulateProduction)

	// Alert domain (threshold + predictive alerts)
	alertRoutes := router.NewDomainGroup("alerts", "/alerts")
	alertRoutes.GET("", alertHandler.GetActiveAlerts)
	alertRoutes.GET("/history", alertHandler.ListAlerts)
	alertRoutes.GET("/predictive", alertHandler.GetPredictiveAlerts)
	alertRoutes.GET("/reorder-recommendations", alertHandler.GetReorderRecommendations)
	alertRoutes.POST("/sufficiency", alertHandler.CheckSufficiency)
	alertRoutes.POST("/scan", alertHandler.TriggerScan)
	alertRoutes.GET("/:id", alertHandler.GetByID)
	alertRoutes.POST("/:id/acknowledge", alertHandler.Acknowledge)
	alertRoutes.POST("/:id/resolve", alertHandler.Resolve)
	alertRoutes.POST("/:id/dismiss", alertHandler.Dismiss)

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(inventoryRoutes).
		Register(catalogRoutes).
		Register(recipeRoutes).
		Register(planningRoutes).
		Register(alertRoutes).
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
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
