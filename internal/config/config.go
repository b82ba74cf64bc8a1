package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OTP          OTPConfig
	Email        EmailConfig
	Storage      StorageConfig
	Google       GoogleConfig
	VNPay        VNPayConfig
	MoMo         MoMoConfig
	PayOS        PayOSConfig
	Subscription SubscriptionConfig
	Jobs         JobsConfig
	Telemetry    TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	ClientURL      string // frontend base used for payment redirects
	APIURL         string // public base of this API, used for gateway callbacks
	RateLimit      int    // requests per minute per client
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
	Secure    bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret        string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// OTPConfig holds email verification settings
type OTPConfig struct {
	TTL            time.Duration
	ResendInterval time.Duration
}

// EmailConfig holds Brevo settings
type EmailConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
}

// Enabled reports whether email delivery is configured
func (e EmailConfig) Enabled() bool {
	return e.APIKey != ""
}

// StorageConfig holds MinIO / S3 settings
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	MaxSize   int64
}

// Enabled reports whether object storage is configured
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// GoogleConfig holds Google sign-in settings
type GoogleConfig struct {
	ClientID    string
	UserInfoURL string
}

// VNPayConfig holds VNPay merchant settings
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// MoMoConfig holds MoMo merchant settings
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	ReturnURL   string
	IPNURL      string
}

// PayOSConfig holds PayOS merchant settings
type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
	Endpoint    string
	ReturnURL   string
	CancelURL   string
}

// SubscriptionConfig holds plan limits and pricing
type SubscriptionConfig struct {
	FreePostLimit      int
	PremiumPostLimit   int
	PremiumUrgentLimit int
	PremiumPrice       int64
	PremiumDuration    int // days
}

// JobsConfig holds background runner settings
type JobsConfig struct {
	Enabled bool
}

// TelemetryConfig holds tracing settings
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"PORT":                  "5000",
		"NODE_ENV":              "development",
		"SERVER_READ_TIMEOUT":   "15s",
		"SERVER_WRITE_TIMEOUT":  "15s",
		"CORS_ALLOWED_ORIGINS":  "http://localhost:3000",
		"CLIENT_URL":            "http://localhost:3000",
		"API_URL":               "http://localhost:5000",
		"RATE_LIMIT_PER_MINUTE": 300,

		"DB_HOST":      "localhost",
		"DB_PORT":      "8000",
		"DB_NAMESPACE": "eventup",
		"DB_DATABASE":  "main",
		"DB_USER":      "root",
		"DB_PASSWORD":  "root",
		"DB_SECURE":    false,

		"REDIS_DB": 0,

		"JWT_SECRET":         "dev-access-secret",
		"JWT_REFRESH_SECRET": "dev-refresh-secret",
		"JWT_EXPIRE":         "7d",
		"JWT_REFRESH_EXPIRE": "30d",
		"JWT_ISSUER":         "eventup",

		"OTP_EXPIRE_MINUTES":    5,
		"OTP_RESEND_INTERVAL":   "60s",
		"BREVO_BASE_URL":        "https://api.brevo.com",
		"EMAIL_FROM":            "no-reply@eventup.vn",
		"EMAIL_FROM_NAME":       "EventUp",
		"STORAGE_BUCKET":        "eventup",
		"STORAGE_MAX_SIZE":      5 * 1024 * 1024,
		"GOOGLE_USERINFO_URL":   "https://www.googleapis.com/oauth2/v3/userinfo",
		"VNPAY_URL":             "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		"MOMO_ENDPOINT":         "https://test-payment.momo.vn/v2/gateway/api/create",
		"PAYOS_ENDPOINT":        "https://api-merchant.payos.vn/v2/payment-requests",
		"FREE_POST_LIMIT":       3,
		"PREMIUM_POST_LIMIT":    15,
		"PREMIUM_URGENT_LIMIT":  3,
		"PREMIUM_PRICE":         499000,
		"PREMIUM_DURATION_DAYS": 30,
		"JOBS_ENABLED":          true,
		"OTEL_ENABLED":          false,
		"OTEL_SERVICE_NAME":     "eventup-api",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads an optional .env file, then environment variables with defaults
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	accessTTL, err := ParseDuration(v.GetString("JWT_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	refreshTTL, err := ParseDuration(v.GetString("JWT_REFRESH_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("JWT_REFRESH_EXPIRE: %w", err)
	}
	apiURL := strings.TrimRight(v.GetString("API_URL"), "/")
	clientURL := strings.TrimRight(v.GetString("CLIENT_URL"), "/")

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("NODE_ENV"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ClientURL:      clientURL,
			APIURL:         apiURL,
			RateLimit:      v.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Database: DatabaseConfig{
			Host:      v.GetString("DB_HOST"),
			Port:      v.GetString("DB_PORT"),
			Namespace: v.GetString("DB_NAMESPACE"),
			Database:  v.GetString("DB_DATABASE"),
			User:      v.GetString("DB_USER"),
			Password:  v.GetString("DB_PASSWORD"),
			Secure:    v.GetBool("DB_SECURE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessTTL:     accessTTL,
			RefreshTTL:    refreshTTL,
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		OTP: OTPConfig{
			TTL:            time.Duration(v.GetInt("OTP_EXPIRE_MINUTES")) * time.Minute,
			ResendInterval: v.GetDuration("OTP_RESEND_INTERVAL"),
		},
		Email: EmailConfig{
			APIKey:    v.GetString("BREVO_API_KEY"),
			BaseURL:   strings.TrimRight(v.GetString("BREVO_BASE_URL"), "/"),
			FromEmail: v.GetString("EMAIL_FROM"),
			FromName:  v.GetString("EMAIL_FROM_NAME"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			PublicURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
			MaxSize:   v.GetInt64("STORAGE_MAX_SIZE"),
		},
		Google: GoogleConfig{
			ClientID:    v.GetString("GOOGLE_CLIENT_ID"),
			UserInfoURL: v.GetString("GOOGLE_USERINFO_URL"),
		},
		VNPay: VNPayConfig{
			TmnCode:    v.GetString("VNPAY_TMN_CODE"),
			HashSecret: v.GetString("VNPAY_HASH_SECRET"),
			PayURL:     v.GetString("VNPAY_URL"),
			ReturnURL:  withDefault(v.GetString("VNPAY_RETURN_URL"), apiURL+"/api/payments/vnpay/return"),
		},
		MoMo: MoMoConfig{
			PartnerCode: v.GetString("MOMO_PARTNER_CODE"),
			AccessKey:   v.GetString("MOMO_ACCESS_KEY"),
			SecretKey:   v.GetString("MOMO_SECRET_KEY"),
			Endpoint:    v.GetString("MOMO_ENDPOINT"),
			ReturnURL:   withDefault(v.GetString("MOMO_RETURN_URL"), apiURL+"/api/payments/momo/return"),
			IPNURL:      withDefault(v.GetString("MOMO_IPN_URL"), apiURL+"/api/payments/momo/ipn"),
		},
		PayOS: PayOSConfig{
			ClientID:    v.GetString("PAYOS_CLIENT_ID"),
			APIKey:      v.GetString("PAYOS_API_KEY"),
			ChecksumKey: v.GetString("PAYOS_CHECKSUM_KEY"),
			Endpoint:    v.GetString("PAYOS_ENDPOINT"),
			ReturnURL:   withDefault(v.GetString("PAYOS_RETURN_URL"), apiURL+"/api/payments/payos/return"),
			CancelURL:   withDefault(v.GetString("PAYOS_CANCEL_URL"), apiURL+"/api/payments/payos/return?cancel=true"),
		},
		Subscription: SubscriptionConfig{
			FreePostLimit:      v.GetInt("FREE_POST_LIMIT"),
			PremiumPostLimit:   v.GetInt("PREMIUM_POST_LIMIT"),
			PremiumUrgentLimit: v.GetInt("PREMIUM_URGENT_LIMIT"),
			PremiumPrice:       v.GetInt64("PREMIUM_PRICE"),
			PremiumDuration:    v.GetInt("PREMIUM_DURATION_DAYS"),
		},
		Jobs: JobsConfig{
			Enabled: v.GetBool("JOBS_ENABLED"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("NODE_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	for name, raw := range map[string]string{"CLIENT_URL": c.Server.ClientURL, "API_URL": c.Server.APIURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got '%s'", name, raw))
		}
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Secrets must be real in production
	if c.IsProduction() {
		if c.JWT.Secret == "" || c.JWT.Secret == "dev-access-secret" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.JWT.RefreshSecret == "" || c.JWT.RefreshSecret == "dev-refresh-secret" {
			errs = append(errs, errors.New("JWT_REFRESH_SECRET is required in production"))
		}
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE and JWT_REFRESH_EXPIRE must be positive"))
	}
	if c.OTP.TTL <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRE_MINUTES must be positive"))
	}

	if c.Storage.Enabled() && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "" || c.Storage.Bucket == "") {
		errs = append(errs, errors.New("STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY and STORAGE_BUCKET are required when STORAGE_ENDPOINT is set"))
	}
	if c.Storage.MaxSize <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_SIZE must be positive"))
	}

	// Plan limits
	s := c.Subscription
	if s.FreePostLimit < 0 || s.PremiumPostLimit < 0 || s.PremiumUrgentLimit < 0 {
		errs = append(errs, errors.New("post limits must not be negative"))
	}
	if s.PremiumPrice < 0 {
		errs = append(errs, errors.New("PREMIUM_PRICE must not be negative"))
	}
	if s.PremiumDuration <= 0 {
		errs = append(errs, errors.New("PREMIUM_DURATION_DAYS must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseDuration accepts Go durations plus a day suffix ("7d", "30d")
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func withDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
