package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	assistantapp "github.com/datadik/portal/internal/application/assistant"
	contentapp "github.com/datadik/portal/internal/application/content"
	dashboardapp "github.com/datadik/portal/internal/application/dashboard"
	identityapp "github.com/datadik/portal/internal/application/identity"
	notificationapp "github.com/datadik/portal/internal/application/notification"
	organizationapp "github.com/datadik/portal/internal/application/organization"
	pagesapp "github.com/datadik/portal/internal/application/pages"
	registryapp "github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/site"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/infrastructure/cache"
	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/datadik/portal/internal/infrastructure/event"
	"github.com/datadik/portal/internal/infrastructure/logger"
	notify "github.com/datadik/portal/internal/infrastructure/notification"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	registryinfra "github.com/datadik/portal/internal/infrastructure/registry"
	"github.com/datadik/portal/internal/infrastructure/scheduler"
	"github.com/datadik/portal/internal/infrastructure/storage"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/datadik/portal/internal/interfaces/http/handler"
	"github.com/datadik/portal/internal/interfaces/http/middleware"
	"github.com/datadik/portal/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/datadik/portal/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Datadik Cilebar Portal API
//	@version		1.0
//	@description	Portal data pendidikan Kecamatan Cilebar: situs sekolah, berita, berkas, dan sinkronisasi data referensi.

//	@contact.name	Tim Datadik Cilebar
//	@contact.url	https://datadikcilebar.my.id

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// localUploadsPath serves files stored by the local object storage
const localUploadsPath = "/_static/uploads"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry starts with the bootstrap logger; the OTLP log core is teed in afterwards
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logs.IsEnabled() {
		if withOTLP, err := logger.New(logCfg, providers.Logs.Core(logger.ParseLevel(cfg.Log.Level))); err == nil {
			log = withOTLP
		}
	}
	defer func() { _ = log.Sync() }()
	metrics := providers.Metrics

	log.Info("Starting Datadik Cilebar portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("primary_host", cfg.Site.PrimaryHost),
	)

	// Repositories stay nil when the database is disabled; services then answer 503
	var (
		db          *persistence.Database
		orgRepo     organization.OrganizationRepository
		schoolRepo  organization.SchoolDataRepository
		postRepo    content.PostRepository
		subRepo     content.SubmissionRepository
		profileRepo identity.ProfileRepository
		attemptRepo identity.LoginAttemptRepository
		codeRepo    identity.VerificationCodeRepository
	)
	if cfg.Database.Enabled {
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
			logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
		db, err = persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
		if err := telemetry.RegisterDBPoolMetrics(providers.Meter.Meter(telemetry.TracerName), db.Stats); err != nil {
			log.Warn("Database pool metrics disabled", zap.Error(err))
		}
		log.Info("Database connected successfully")

		orgRepo = persistence.NewGormOrganizationRepository(db.DB)
		schoolRepo = persistence.NewGormSchoolDataRepository(db.DB)
		postRepo = persistence.NewGormPostRepository(db.DB)
		subRepo = persistence.NewGormSubmissionRepository(db.DB)
		profileRepo = persistence.NewGormProfileRepository(db.DB)
		attemptRepo = persistence.NewGormLoginAttemptRepository(db.DB)
		codeRepo = persistence.NewGormVerificationCodeRepository(db.DB)
	} else {
		log.Warn("Database disabled; data endpoints will report unavailable")
	}

	// Redis backs the sync lock, the token blacklist and cross-instance toasts
	redisFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	redisClient, err := redisFactory.Connect(ctx)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	locker := redisFactory.Locker()
	blacklist := redisFactory.TokenBlacklist()
	processed := redisFactory.IdempotencyStore()

	var objectStorage contentapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Object storage unavailable", zap.Error(err))
		} else {
			if err := s3Storage.EnsureBucket(ctx); err != nil {
				log.Warn("Submissions bucket not ready", zap.String("bucket", s3Storage.GetBucket()), zap.Error(err))
			}
			objectStorage = s3Storage
		}
	} else {
		localStorage, err := storage.NewLocalObjectStorage(cfg.Storage.LocalDir, localUploadsPath)
		if err != nil {
			log.Warn("Local storage unavailable", zap.Error(err))
		} else {
			objectStorage = localStorage
		}
	}

	// Toasts: events -> notification handler -> hub (or Redis bridge) -> SSE
	hub := notify.NewHub(notify.WithBufferSize(cfg.Toast.BufferSize), notify.WithHubLogger(log))
	var publisher notify.Publisher = hub
	if redisClient != nil {
		bridge := notify.NewRedisBridge(redisClient, hub,
			notify.WithChannel(cfg.Toast.RedisChannel),
			notify.WithBridgeLogger(log),
		)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Notification bridge stopped", zap.Error(err))
			}
		}()
	}

	eventBus := event.NewInMemoryEventBus(log)
	toastHandler := notificationapp.NewEventHandler(publisher, log,
		notificationapp.WithTTL(cfg.Toast.TTL),
		notificationapp.WithMetrics(metrics),
	)
	eventBus.Subscribe(event.NewIdempotentHandler(toastHandler, processed, log,
		event.WithConsumer("toast"),
		event.WithDeliveryMetrics(metrics),
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		profileRepo, attemptRepo, schoolRepo, jwtService, blacklist,
		identityapp.DefaultAuthServiceConfig(), log,
		identityapp.WithAuthMetrics(metrics),
	)
	userService := identityapp.NewUserService(profileRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	verificationService := identityapp.NewVerificationService(codeRepo, orgRepo, identityapp.NewLogCodeSender(log), log)
	organizationService := organizationapp.NewOrganizationService(orgRepo, schoolRepo, eventBus, log)
	postService := contentapp.NewPostService(postRepo, orgRepo, eventBus, log)
	submissionService := contentapp.NewSubmissionService(subRepo, objectStorage, eventBus,
		contentapp.SubmissionServiceConfig{
			MaxUploadSize:     cfg.Storage.MaxUploadSize,
			DownloadURLExpiry: cfg.Storage.PresignExpiry,
		}, log)

	fetcher, closeFetcher, err := registryinfra.NewFetcher(cfg.Sync, log)
	if err != nil {
		log.Warn("Registry fetcher unavailable", zap.Error(err))
		fetcher, closeFetcher = nil, func() {}
	}
	defer closeFetcher()

	var reconciler *registryapp.Reconciler
	if orgRepo != nil {
		reconciler = registryapp.NewReconciler(orgRepo, schoolRepo, log)
	}
	syncService := registryapp.NewSyncService(fetcher, reconciler, eventBus,
		registryapp.SyncConfig{
			ListingURLs:      cfg.Sync.ListingURLs,
			DetailURL:        cfg.Sync.DetailURL,
			ListingTimeout:   cfg.Sync.ListingTimeout,
			DetailTimeout:    cfg.Sync.DetailTimeout,
			DetailRatePerSec: cfg.Sync.DetailRatePerSec,
			LockTTL:          cfg.Sync.LockTTL,
		}, log,
		registryapp.WithLocker(locker),
		registryapp.WithSyncMetrics(metrics),
	)
	importService := registryapp.NewImportService(reconciler, eventBus, log)
	statsService := dashboardapp.NewStatsService(orgRepo, profileRepo, postRepo, subRepo, log)
	pageService := pagesapp.NewService(orgRepo, schoolRepo, postRepo, subRepo, profileRepo, statsService, log)
	assistantService := assistantapp.NewService(orgRepo, log)

	// Background jobs
	executor := scheduler.NewTaskExecutor(log).
		Register(scheduler.JobKindRegistrySync, scheduler.RegistrySyncTask(syncService)).
		Register(scheduler.JobKindVerificationReap, scheduler.VerificationReapTask(verificationService, cfg.Verification.ReapAfter, log))
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.RetryAttempts = cfg.Sync.RetryAttempts
	schedCfg.RetryDelay = cfg.Sync.RetryDelay
	schedCfg.RetryMaxDelay = cfg.Sync.RetryMaxDelay
	jobScheduler := scheduler.NewScheduler(schedCfg, executor, log)
	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	trigger := scheduler.NewIntervalTrigger(jobScheduler, log).
		Every(scheduler.JobKindRegistrySync, cfg.Sync.ScheduleInterval).
		Every(scheduler.JobKindVerificationReap, cfg.Verification.ReapInterval)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start job trigger", zap.Error(err))
	}

	// Handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, "1.0.0")
	if db != nil {
		systemHandler.AddCheck("database", db.Ping)
	}
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	sseHandler := handler.NewNotificationSSEHandler(hub,
		handler.WithSSELogger(log),
		handler.WithSSEHeartbeat(cfg.Toast.HeartbeatInterval),
	)

	handlers := router.PortalHandlers{
		Auth:          handler.NewAuthHandler(authService, cfg.Cookie),
		Users:         handler.NewUserHandler(userService),
		Organizations: handler.NewOrganizationHandler(organizationService, verificationService),
		Posts:         handler.NewPostHandler(postService),
		Submissions:   handler.NewSubmissionHandler(submissionService),
		Registry:      handler.NewRegistryHandler(syncService, importService, cfg.Sync.APIKey),
		Notifications: sseHandler,
		Dashboard:     handler.NewDashboardHandler(statsService),
		Assistant:     handler.NewAssistantHandler(assistantService),
		Pages:         handler.NewPageHandler(pageService),
		System:        systemHandler,
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	// HostRouter must run first: rewrites re-enter the engine with the tenant path
	resolver := site.NewResolver(cfg.Site.RootHosts, cfg.Site.PrimaryHost)
	engine.Use(middleware.HostRouter(engine, middleware.HostRouterConfig{
		Resolver: resolver,
		Sessions: middleware.NewSessionChecker(jwtService, blacklist, log),
		Logger:   log,
	}))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Tracer.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: providers.Meter,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       providers.Meter.IsEnabled(),
	}))
	engine.Use(middleware.Profiling())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.SiteRootHosts = cfg.Site.RootHosts
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	secCfg := middleware.DefaultSecurityConfig()
	if cfg.App.IsProduction() && cfg.Cookie.Secure {
		secCfg.HSTSMaxAge = 365 * 24 * time.Hour
		secCfg.HSTSIncludeSubdomains = true
	}
	if cfg.Storage.Enabled && cfg.Storage.Endpoint != "" {
		secCfg.ImgSources = append(secCfg.ImgSources, cfg.Storage.Endpoint)
		secCfg.ConnectSources = append(secCfg.ConnectSources, cfg.Storage.Endpoint)
	}
	engine.Use(middleware.SecureWithConfig(secCfg))

	engine.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		MaxBytes: cfg.HTTP.MaxBodySize,
		Uploads: map[string]int64{
			"/api/submissions":          cfg.Storage.MaxUploadSize,
			"/api/admin/schools/import": handler.MaxImportFileSize,
		},
	}))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		engine.Use(middleware.RateLimit(limiter))
	}
	engine.Use(middleware.OptionalJWTAuthMiddleware(jwtService, blacklist))
	engine.Use(middleware.SpanAttributes())

	guards := router.PortalMiddleware{
		Auth:  middleware.JWTAuthMiddleware(jwtService),
		Admin: middleware.RequireAdmin(),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		loginLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer loginLimiter.Close()
		guards.LoginLimit = middleware.AuthRateLimit(loginLimiter)
	}

	r := router.NewRouter(engine)
	router.RegisterPortal(r, handlers, guards).Setup()

	docsGuard, err := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
		Resolver:    resolver,
	}, middleware.JWTAuthMiddleware(jwtService))
	if err != nil {
		log.Fatal("Invalid swagger configuration", zap.Error(err))
	}
	engine.GET("/swagger/*any", append(docsGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))...)
	if !cfg.Storage.Enabled {
		engine.Static(localUploadsPath, cfg.Storage.LocalDir)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open SSE streams would hold Shutdown until the deadline
	sseHandler.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Warn("Job trigger stop failed", zap.Error(err))
	}
	if err := jobScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler stop failed", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	hub.Close()
	if err := processed.Close(); err != nil {
		log.Warn("Error closing idempotency store", zap.Error(err))
	}
	if err := redisFactory.Close(); err != nil {
		log.Warn("Error closing Redis", zap.Error(err))
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
