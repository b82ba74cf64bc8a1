package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
)

// Handlers groups every endpoint handler
type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Event        *EventHandler
	Application  *ApplicationHandler
	Review       *ReviewHandler
	Notification *NotificationHandler
	Realtime     *RealtimeHandler
	Subscription *SubscriptionHandler
	Payment      *PaymentHandler
	File         *FileHandler
	Health       *HealthHandler
}

// RouterConfig holds everything the router wires together
type RouterConfig struct {
	Handlers       Handlers
	Auth           *middleware.Auth
	Limits         cache.Store
	LocalLimiter   *middleware.RateLimiter
	Idempotency    *middleware.IdempotencyStore
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	ServiceName    string
	Tracing        bool
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Logger, "/api/health", "/metrics"))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.NoRoute(func(c *gin.Context) {
		WriteError(c, model.NewNotFoundError("route"))
	})
	r.NoMethod(func(c *gin.Context) {
		WriteError(c, model.NewMethodNotAllowedError(c.Request.Method))
	})

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	h := cfg.Handlers
	protect := cfg.Auth.Protect()
	ctv := middleware.RequireCTV()
	btc := middleware.RequireBTC()

	api := r.Group("/api")
	api.GET("/health", h.Health.Live)
	api.GET("/health/details", h.Health.Details)
	api.GET("/ws", h.Realtime.Connect)

	api.Use(middleware.RateLimit(cfg.Limits, cfg.LocalLimiter, cfg.Logger))

	auth := api.Group("/auth")
	{
		auth.POST("/register/ctv", h.Auth.RegisterCTV)
		auth.POST("/register/btc", h.Auth.RegisterBTC)
		auth.POST("/send-otp", h.Auth.SendOTP)
		auth.POST("/verify-otp", h.Auth.VerifyOTP)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh-token", h.Auth.RefreshToken)
		auth.POST("/google", h.Auth.Google)
		auth.POST("/logout", protect, h.Auth.Logout)
		auth.GET("/me", protect, h.Auth.Me)
	}

	users := api.Group("/users")
	{
		users.GET("/btc/:id/public", h.Profile.PublicBTC)
		users.GET("/ctv/:id/public", h.Profile.PublicCTV)
		users.GET("/me", protect, h.Profile.GetMe)
		users.PUT("/me", protect, h.Profile.UpdateMe)
		users.GET("/ctv/cv", protect, ctv, h.Profile.GetCV)
		users.PUT("/ctv/cv", protect, ctv, h.Profile.UpsertCV)
		users.GET("/btc/profile", protect, btc, h.Profile.GetBTCProfile)
		users.PUT("/btc/profile", protect, btc, h.Profile.UpsertBTCProfile)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Event.Search)
		events.GET("/my-events", protect, btc, h.Event.MyEvents)
		events.GET("/dashboard/stats", protect, btc, h.Event.Dashboard)
		events.GET("/:eventId", cfg.Auth.OptionalAuth(), h.Event.Get)
		events.POST("", protect, btc, h.Event.Create)
		events.PUT("/:eventId", protect, btc, h.Event.Update)
		events.DELETE("/:eventId", protect, btc, h.Event.Delete)
	}

	apps := api.Group("/applications", protect)
	{
		apps.POST("", ctv, h.Application.Apply)
		apps.GET("/my", ctv, h.Application.Mine)
		apps.GET("/dashboard/stats", ctv, h.Application.Dashboard)
		apps.DELETE("/:id", ctv, h.Application.Cancel)
		apps.GET("/event/:eventId", btc, h.Application.ForEvent)
		apps.PUT("/:id/approve", btc, h.Application.Approve)
		apps.PUT("/:id/reject", btc, h.Application.Reject)
		apps.PUT("/:id/complete", btc, h.Application.Complete)
		apps.PUT("/:id/report", btc, h.Application.Report)
		apps.POST("/bulk-approve", btc, cfg.Auth.RequirePremium(), h.Application.BulkApprove)
		apps.POST("/bulk-reject", btc, cfg.Auth.RequirePremium(), h.Application.BulkReject)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/user/:userId", h.Review.ForUser)
		reviews.GET("/check", protect, h.Review.Check)
		reviews.POST("/btc", protect, ctv, h.Review.ReviewBTC)
		reviews.POST("/ctv", protect, btc, h.Review.ReviewCTV)
		reviews.PUT("/:id", protect, h.Review.Update)
		reviews.DELETE("/:id", protect, h.Review.Delete)
	}

	notifications := api.Group("/notifications", protect)
	{
		notifications.GET("", h.Notification.List)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
		notifications.DELETE("/:id", h.Notification.Delete)
	}

	subs := api.Group("/subscriptions")
	{
		subs.GET("/plans", h.Subscription.Plans)
		subs.GET("/current", protect, btc, h.Subscription.Current)
		subs.POST("/upgrade", protect, btc, middleware.Idempotency(cfg.Idempotency), h.Subscription.Upgrade)
		subs.POST("/cancel", protect, btc, h.Subscription.Cancel)
	}

	payments := api.Group("/payments")
	{
		payments.GET("/vnpay/return", h.Payment.VNPayReturn)
		payments.GET("/vnpay/ipn", h.Payment.VNPayIPN)
		payments.GET("/momo/return", h.Payment.MoMoReturn)
		payments.POST("/momo/ipn", h.Payment.MoMoIPN)
		payments.GET("/payos/return", h.Payment.PayOSReturn)
		payments.POST("/payos/webhook", h.Payment.PayOSWebhook)
		payments.GET("", protect, h.Payment.List)
		payments.GET("/transaction/:transactionId", protect, h.Payment.GetByTransaction)
	}

	files := api.Group("/files", protect)
	{
		files.POST("/upload", h.File.Upload)
		files.POST("/upload-multiple", h.File.UploadMany)
		files.DELETE("/*publicId", h.File.Delete)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, middleware.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// Credentials cannot be combined with a literal "*"
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
