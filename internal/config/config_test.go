package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "dividend_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("PURCHASE_STORE", "")
	t.Setenv("SITE_URL", "https://dividend.example/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "dividend_test", cfg.MongoDB.Database)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "localhost", cfg.Redis.Host)
	require.Equal(t, "https://dividend.example", cfg.Server.SiteURL)
	require.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	// webhook secret falls back to the secret key
	require.Equal(t, "sk_test_abc", cfg.Paystack.WebhookSecret)
	// mongo configured and no postgres DSN => purchases go to mongo
	require.Equal(t, "mongo", cfg.Storage.PurchaseBackend)
}

func TestLoadConfig_PurchaseBackendSelection(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("PURCHASE_STORE", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.PurchaseBackend)

	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/dividend?sslmode=disable")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Storage.PurchaseBackend)

	t.Setenv("PURCHASE_STORE", "Memory")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.PurchaseBackend)
}

func TestKeycloakIssuer(t *testing.T) {
	require.Equal(t, "", KeycloakConfig{}.Issuer())
	require.Equal(t, "https://kc.example/realms/dividend", KeycloakConfig{URL: "https://kc.example/", Realm: "dividend"}.Issuer())
	require.Equal(t, "https://issuer.example", KeycloakConfig{URL: "https://issuer.example"}.Issuer())
}
