package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/thedividend/dividend/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Paystack  PaystackConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Render    RenderConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	SiteURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

// Issuer returns the OIDC issuer URL, or "" when OIDC is not configured.
func (k KeycloakConfig) Issuer() string {
	if k.URL == "" {
		return ""
	}
	if k.Realm == "" {
		return k.URL
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type PaystackConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// StorageConfig selects the purchase store backend: memory, mongo or postgres.
type StorageConfig struct {
	PurchaseBackend string
}

type RenderConfig struct {
	CacheTTL time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("MONGODB_DATABASE", "dividend")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYSTACK_TIMEOUT", 15)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("RENDER_CACHE_TTL", 600)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			SiteURL:      strings.TrimRight(v.GetString("SITE_URL"), "/"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:      v.GetString("KEYCLOAK_URL"),
			Realm:    v.GetString("KEYCLOAK_REALM"),
			ClientID: v.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Paystack: PaystackConfig{
			SecretKey:     os.Getenv("PAYSTACK_SECRET_KEY"),
			WebhookSecret: os.Getenv("PAYSTACK_WEBHOOK_SECRET"),
			BaseURL:       strings.TrimRight(v.GetString("PAYSTACK_BASE_URL"), "/"),
			Timeout:       time.Duration(v.GetInt("PAYSTACK_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Storage: StorageConfig{
			PurchaseBackend: strings.ToLower(v.GetString("PURCHASE_STORE")),
		},
		Render: RenderConfig{
			CacheTTL: time.Duration(v.GetInt("RENDER_CACHE_TTL")) * time.Second,
		},
	}

	// Paystack signs webhooks with the secret key unless a dedicated secret is set
	if cfg.Paystack.WebhookSecret == "" {
		cfg.Paystack.WebhookSecret = cfg.Paystack.SecretKey
	}
	if cfg.Storage.PurchaseBackend == "" {
		switch {
		case cfg.Postgres.DSN != "":
			cfg.Storage.PurchaseBackend = "postgres"
		case cfg.MongoDB.URI != "":
			cfg.Storage.PurchaseBackend = "mongo"
		default:
			cfg.Storage.PurchaseBackend = "memory"
		}
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.Paystack.WebhookSecret == "" {
		logger.Warn("no Paystack webhook secret configured; all webhooks will be rejected")
	}

	return cfg, nil
}
