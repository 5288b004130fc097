// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	Relay    RelayConfig
	Email    EmailConfig
	PDF      PDFConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool

	// SiteURL is the public origin of the marketing site. Processor return
	// URLs and final payment links are built from it.
	SiteURL string

	CompanyName    string
	CompanyEmail   string
	CompanyWebsite string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	// URL (redis:// or rediss://) takes precedence over the discrete fields
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int

	// KeyTTL applies to session keys (cart, plan, orders, intake). Zero
	// keeps them until the visitor clears them.
	KeyTTL time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
	CookieSecure       bool
	SessionCookieTTL   time.Duration
}

// StripeConfig contains payment processor configuration
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	VerifySessions bool
}

// CheckoutConfig contains checkout and catalog configuration
type CheckoutConfig struct {
	CatalogPath          string
	LinkSigningSecret    string
	FinalPaymentLinkTTL  time.Duration
	FinalPaymentCurrency string
}

// RelayConfig contains the lead-capture forwarding configuration
type RelayConfig struct {
	WebhookURL string
	SecretHash string
	Timeout    time.Duration
}

// EmailConfig contains email service configuration
type EmailConfig struct {
	Provider   string
	APIKey     string
	FromEmail  string
	FromName   string
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPUseTLS bool
	ReplyTo    string
}

// PDFConfig contains receipt rendering configuration
type PDFConfig struct {
	WkhtmltopdfPath string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := FromEnv()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FromEnv builds the configuration from the current environment without
// reading .env files or validating.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Studio Storefront"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			Environment:    getEnv("APP_ENV", "development"),
			Debug:          getEnvAsBool("APP_DEBUG", true),
			SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
			CompanyName:    getEnv("COMPANY_NAME", "Studio"),
			CompanyEmail:   getEnv("COMPANY_EMAIL", "hello@example.com"),
			CompanyWebsite: getEnv("COMPANY_WEBSITE", "https://example.com"),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   getEnvAsInt64("SERVER_MAX_BODY_BYTES", 1<<20), // 1MB
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront_db"),
			User:         getEnv("DB_USER", "storefront_user"),
			Password:     getEnv("DB_PASSWORD", "storefront_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			KeyTTL:       getEnvAsDuration("REDIS_KEY_TTL", 0),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Relay-Secret"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			CookieSecure:       getEnvAsBool("COOKIE_SECURE", false),
			SessionCookieTTL:   getEnvAsDuration("SESSION_COOKIE_TTL", 365*24*time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			VerifySessions: getEnvAsBool("STRIPE_VERIFY_SESSIONS", true),
		},
		Checkout: CheckoutConfig{
			CatalogPath:          getEnv("CATALOG_PATH", "configs/catalog.yaml"),
			LinkSigningSecret:    getEnv("LINK_SIGNING_SECRET", "change-me-link-signing-secret-32chars"),
			FinalPaymentLinkTTL:  getEnvAsDuration("FINAL_PAYMENT_LINK_TTL", 30*24*time.Hour),
			FinalPaymentCurrency: getEnv("FINAL_PAYMENT_CURRENCY", "usd"),
		},
		Relay: RelayConfig{
			WebhookURL: getEnv("LEAD_WEBHOOK_URL", ""),
			SecretHash: getEnv("RELAY_SECRET_HASH", ""),
			Timeout:    getEnvAsDuration("LEAD_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Email: EmailConfig{
			Provider:   getEnv("EMAIL_PROVIDER", "none"),
			APIKey:     getEnv("EMAIL_API_KEY", ""),
			FromEmail:  getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:   getEnv("FROM_NAME", "Studio"),
			SMTPHost:   getEnv("SMTP_HOST", ""),
			SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:   getEnv("SMTP_USER", ""),
			SMTPPass:   getEnv("SMTP_PASS", ""),
			SMTPUseTLS: getEnvAsBool("SMTP_USE_TLS", false),
			ReplyTo:    getEnv("EMAIL_REPLY_TO", ""),
		},
		PDF: PDFConfig{
			WkhtmltopdfPath: getEnv("WKHTMLTOPDF_PATH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate site URL
	u, err := url.Parse(c.App.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL")
	}

	// Validate link signing secret
	if len(c.Checkout.LinkSigningSecret) < 32 {
		return fmt.Errorf("LINK_SIGNING_SECRET must be at least 32 characters long")
	}

	if c.Checkout.CatalogPath == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}

	// Validate database configuration
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	// Validate Redis configuration
	if c.Redis.URL == "" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
