package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIKey:        "key",
		APISecret:     "secret",
		SessionSecret: "cookie-secret",
		SessionStore:  "file",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("missing credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.APISecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown session store", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = "dynamo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis store requires url", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = "redis"
		assert.Error(t, cfg.Validate())

		cfg.RedisURL = "redis://localhost:6379"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("mongo store requires uri", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = "mongo"
		assert.Error(t, cfg.Validate())

		cfg.MongoURI = "mongodb://localhost:27017"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	t.Setenv("SESSION_SECRET", "cookie-secret")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "file", cfg.SessionStore)
	assert.Equal(t, DefaultScopes, cfg.Scopes)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, "http://localhost:3000/api/auth/callback", cfg.RedirectURI)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	t.Setenv("SESSION_SECRET", "cookie-secret")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("USE_MOCK_SHOPIFY", "true")
	t.Setenv("SHOPIFY_REDIRECT_URI", "https://app.example.com/api/auth/callback")

	cfg := Load()
	assert.True(t, cfg.Production())
	assert.True(t, cfg.UseMockShopify)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://app.example.com/api/auth/callback", cfg.RedirectURI)
}

func TestRequestedScopes(t *testing.T) {
	cfg := &Config{Scopes: "read_products,write_customers"}
	assert.Equal(t, []string{"read_products", "write_customers"}, cfg.RequestedScopes())
}
