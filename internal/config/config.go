package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultScopes are requested during installation when SHOPIFY_SCOPES is
// not set.
const DefaultScopes = "read_customers,write_customers,read_products,write_customer_metafields,read_customer_metafields"

// DefaultAPIVersion pins the Admin GraphQL API version.
const DefaultAPIVersion = "2024-10"

// Config is the explicit configuration object built once at process start
// and passed into every component. Nothing reads the environment after
// Load returns, except the readiness probe which re-reports missing vars.
type Config struct {
	APIKey    string `validate:"required"`
	APISecret string `validate:"required"`
	Scopes    string
	// RedirectURI defaults to AppURL + "/api/auth/callback".
	RedirectURI string
	AppURL      string
	APIVersion  string

	// Static development fallback used when a request carries no
	// resolved session.
	ShopDomain  string
	AccessToken string

	SessionSecret  string `validate:"required"`
	AllowedOrigins []string
	Port           string
	Environment    string
	UseMockShopify bool

	// Session store selection: file (default), redis or mongo.
	SessionStore  string `validate:"oneof=file redis mongo"`
	SessionFile   string
	RedisURL      string
	MongoURI      string
	MongoDatabase string
}

// Load reads the environment (after godotenv) into a Config. It does not
// validate; call Validate before serving.
func Load() *Config {
	// Missing .env is fine in production where env vars come from the
	// platform.
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:        os.Getenv("SHOPIFY_API_KEY"),
		APISecret:     os.Getenv("SHOPIFY_API_SECRET"),
		Scopes:        getenv("SHOPIFY_SCOPES", DefaultScopes),
		RedirectURI:   os.Getenv("SHOPIFY_REDIRECT_URI"),
		AppURL:        getenv("APPLICATION_URL", "http://localhost:3000"),
		APIVersion:    getenv("SHOPIFY_API_VERSION", DefaultAPIVersion),
		ShopDomain:    os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		AccessToken:   os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Port:          getenv("PORT", "3000"),
		Environment:   getenv("NODE_ENV", "development"),
		SessionStore:  getenv("SESSION_STORE", "file"),
		SessionFile:   getenv("SESSION_FILE", ".sessions/sessions.json"),
		RedisURL:      os.Getenv("REDIS_URL"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getenv("MONGODB_DATABASE", "wishlist"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if os.Getenv("USE_MOCK_SHOPIFY") == "true" {
		cfg.UseMockShopify = true
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = cfg.AppURL + "/api/auth/callback"
	}

	return cfg
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.SessionStore {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("invalid configuration: SESSION_STORE=redis requires REDIS_URL")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("invalid configuration: SESSION_STORE=mongo requires MONGODB_URI")
		}
	}
	return nil
}

// Production reports whether the process runs with production hardening
// (secure cookies, sanitized error responses).
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// RequestedScopes splits the configured scope list.
func (c *Config) RequestedScopes() []string {
	return strings.Split(c.Scopes, ",")
}

// MissingRequired returns the names of required environment variables that
// are absent, for the readiness probe.
func MissingRequired() []string {
	required := []string{"SHOPIFY_API_KEY", "SHOPIFY_API_SECRET", "SHOPIFY_SHOP_DOMAIN"}
	var missing []string
	for _, name := range required {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
