package api

import (
	"net/http"

	"wishlist-shopify-layer/internal/application"
	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/metrics"
	"wishlist-shopify-layer/internal/infrastructure/shopify"
	"wishlist-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config          *config.Config
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
	OAuth           *application.OAuthService
	Wishlist        *application.WishlistService
	Exchanger       ports.TokenExchanger
	Sessions        ports.SessionStore
	WebhookVerifier *shopify.WebhookVerifier
}

// NewRouter assembles the full HTTP surface.
func NewRouter(d Deps) *chi.Mux {
	authHandler := NewAuthHandler(d.OAuth, d.Config, d.Logger)
	wishlistHandler := NewWishlistHandler(d.Wishlist, d.Logger, d.Config.Production())
	webhookHandler := NewWebhookHandler(d.OAuth, d.WebhookVerifier, d.Logger)
	healthHandler := HealthHandler{}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(d.Logger, d.Metrics))

	allowedOrigins := d.Config.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/api/health", healthHandler.Health)
	r.Get("/api/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/shopify", authHandler.Initiate)
		r.Get("/callback", authHandler.Callback)
		r.Get("/verify", authHandler.Verify)
		r.Post("/uninstall", authHandler.Uninstall)
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(resolveIdentity(d.Exchanger, d.Logger, d.Config.Production()))
		r.Use(attachShopSession(d.Sessions, d.Logger))
		r.Post("/add", wishlistHandler.Add)
		r.Post("/remove", wishlistHandler.Remove)
		r.Get("/current", wishlistHandler.GetCurrent)
		r.Get("/{customerID}", wishlistHandler.GetByCustomer)
	})

	r.Post("/api/webhooks/app-uninstalled", webhookHandler.AppUninstalled)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusNotFound, domain.CodeNotFound, "Endpoint not found")
	})

	return r
}
