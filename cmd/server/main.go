package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/config"
	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/handler"
	"github.com/eventup/api/internal/jobs"
	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/repository"
	"github.com/eventup/api/internal/service"
	"github.com/eventup/api/internal/storage"
	"github.com/eventup/api/internal/telemetry"
	"github.com/eventup/api/migrations"
	"github.com/eventup/api/pkg/jwt"
)

const serviceName = "eventup-api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootstrapLogger().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		bootstrapLogger().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	tracingName := cfg.Telemetry.ServiceName
	if tracingName == "" {
		tracingName = serviceName
	}
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: tracingName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		Secure:    cfg.Database.Secure,
	})
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	applied, err := database.Migrate(ctx, db, migrations.Files)
	if err != nil {
		return err
	}
	logger.Info("schema applied", zap.Strings("files", applied))

	// Shared cache: Redis when configured, otherwise process local
	var store cache.Store
	if cfg.Redis.Enabled() {
		rs, err := cache.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		store = rs
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = cache.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, using in-memory cache")
	}
	defer func() { _ = store.Close() }()

	// Object storage
	var objects storage.Store = storage.Disabled{}
	if cfg.Storage.Enabled() {
		ms, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return err
		}
		objects = ms
		logger.Info("object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		logger.Warn("STORAGE_ENDPOINT not set, uploads are disabled")
	}

	jwtService, err := jwt.NewService(jwt.Config{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	mailer := email.NewBrevoClient(email.Config{
		APIKey:    cfg.Email.APIKey,
		BaseURL:   cfg.Email.BaseURL,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}, logger)
	if !cfg.Email.Enabled() {
		logger.Warn("BREVO_API_KEY not set, emails are only logged")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	eventRepo := repository.NewEventRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize services
	hub := service.NewNotificationHub(30 * time.Second)
	defer hub.Close()

	plans := service.PlanConfig{
		FreePostLimit:       cfg.Subscription.FreePostLimit,
		PremiumPostLimit:    cfg.Subscription.PremiumPostLimit,
		PremiumUrgentLimit:  cfg.Subscription.PremiumUrgentLimit,
		PremiumPrice:        decimal.NewFromInt(cfg.Subscription.PremiumPrice),
		PremiumDurationDays: cfg.Subscription.PremiumDuration,
	}

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  tokenRepo,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationServiceConfig{
		Repo:    notificationRepo,
		Hub:     hub,
		Metrics: m,
		Logger:  logger,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       userRepo,
		ProfileRepo:    profileRepo,
		TokenService:   tokenService,
		Google:         service.NewGoogleClient(cfg.Google.UserInfoURL),
		Mailer:         mailer,
		Cache:          store,
		OTPTTL:         cfg.OTP.TTL,
		ResendInterval: cfg.OTP.ResendInterval,
		Logger:         logger,
	})
	profileService := service.NewProfileService(service.ProfileServiceConfig{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		EventRepo:   eventRepo,
		ReviewRepo:  reviewRepo,
	})
	eventService := service.NewEventService(service.EventServiceConfig{
		EventRepo:   eventRepo,
		AppRepo:     appRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Plans:       plans,
		Logger:      logger,
	})
	applicationService := service.NewApplicationService(service.ApplicationServiceConfig{
		AppRepo:     appRepo,
		EventRepo:   eventRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Notifier:    notificationService,
		Mailer:      mailer,
		Logger:      logger,
	})
	reviewService := service.NewReviewService(service.ReviewServiceConfig{
		ReviewRepo:  reviewRepo,
		EventRepo:   eventRepo,
		AppRepo:     appRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Notifier:    notificationService,
		Mailer:      mailer,
		Logger:      logger,
	})
	reminderService := service.NewReminderService(service.ReminderServiceConfig{
		EventRepo:   eventRepo,
		AppRepo:     appRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Notifier:    notificationService,
		Mailer:      mailer,
		Logger:      logger,
	})
	subscriptionService := service.NewSubscriptionService(service.SubscriptionServiceConfig{
		UserRepo: userRepo,
		Plans:    plans,
		Logger:   logger,
	})
	paymentService := service.NewPaymentService(service.PaymentServiceConfig{
		PaymentRepo: paymentRepo,
		VNPay: gateway.NewVNPay(gateway.VNPayConfig{
			TmnCode:    cfg.VNPay.TmnCode,
			HashSecret: cfg.VNPay.HashSecret,
			PayURL:     cfg.VNPay.PayURL,
			ReturnURL:  cfg.VNPay.ReturnURL,
		}),
		MoMo: gateway.NewMoMo(gateway.MoMoConfig{
			PartnerCode: cfg.MoMo.PartnerCode,
			AccessKey:   cfg.MoMo.AccessKey,
			SecretKey:   cfg.MoMo.SecretKey,
			Endpoint:    cfg.MoMo.Endpoint,
			ReturnURL:   cfg.MoMo.ReturnURL,
			IPNURL:      cfg.MoMo.IPNURL,
		}),
		PayOS: gateway.NewPayOS(gateway.PayOSConfig{
			ClientID:    cfg.PayOS.ClientID,
			APIKey:      cfg.PayOS.APIKey,
			ChecksumKey: cfg.PayOS.ChecksumKey,
			Endpoint:    cfg.PayOS.Endpoint,
			ReturnURL:   cfg.PayOS.ReturnURL,
			CancelURL:   cfg.PayOS.CancelURL,
		}),
		Activator: subscriptionService,
		Notifier:  notificationService,
		Cache:     store,
		Metrics:   m,
		Logger:    logger,
	})
	subscriptionService.SetCheckout(paymentService)
	fileService := service.NewFileService(objects, cfg.Storage.MaxSize, logger)

	checks := map[string]service.HealthCheck{
		"database": db.Ping,
		"cache":    store.Ping,
	}
	if cfg.Storage.Enabled() {
		checks["storage"] = objects.Ping
	}
	healthService := service.NewHealthService(serviceName, checks)

	// Initialize middleware
	auth := middleware.NewAuth(tokenService, authService)
	localLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.Server.RateLimit,
		Window: time.Minute,
		Burst:  cfg.Server.RateLimit / 5,
	})
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	if err := handler.RegisterValidators(); err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Handlers: handler.Handlers{
			Auth: handler.NewAuthHandler(handler.AuthHandlerConfig{
				AuthService:  authService,
				CookieTTL:    cfg.JWT.AccessTTL,
				SecureCookie: cfg.IsProduction(),
				Logger:       logger,
			}),
			Profile:      handler.NewProfileHandler(profileService, logger),
			Event:        handler.NewEventHandler(eventService, logger),
			Application:  handler.NewApplicationHandler(applicationService, logger),
			Review:       handler.NewReviewHandler(reviewService, logger),
			Notification: handler.NewNotificationHandler(notificationService, logger),
			Realtime:     handler.NewRealtimeHandler(hub, auth, cfg.Server.AllowedOrigins, m, logger),
			Subscription: handler.NewSubscriptionHandler(subscriptionService, logger),
			Payment:      handler.NewPaymentHandler(paymentService, cfg.Server.ClientURL, logger),
			File:         handler.NewFileHandler(fileService, logger),
			Health:       handler.NewHealthHandler(healthService),
		},
		Auth:           auth,
		Limits:         store,
		LocalLimiter:   localLimiter,
		Idempotency:    idempotencyStore,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ServiceName:    tracingName,
		Tracing:        cfg.Telemetry.Enabled,
		Logger:         logger,
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(jobs.SchedulerConfig{
			Applications:  applicationService,
			Reminders:     reminderService,
			Subscriptions: subscriptionService,
			Tokens:        tokenService,
			Runner: jobs.RunnerConfig{
				Locks:      store,
				Metrics:    m,
				Logger:     logger,
				StartDelay: 5 * time.Second,
			},
		})
		scheduler.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case runErr = <-serveErr:
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	return runErr
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func bootstrapLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
