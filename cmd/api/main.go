package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wishlist-shopify-layer/internal/application"
	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/infrastructure/api"
	"wishlist-shopify-layer/internal/infrastructure/metrics"
	"wishlist-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "wishlist-shopify-layer/internal/infrastructure/shopify"
	"wishlist-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore, err := repository.NewSessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize session store")
	}

	m := metrics.New()

	var adminClient ports.AdminClient
	if cfg.UseMockShopify {
		logger.Warn().Msg("USE_MOCK_SHOPIFY is set; Admin API calls are mocked")
		adminClient = shopifyinfra.NewMockAdminClient(logger)
	} else {
		adminClient = shopifyinfra.NewAdminClient(cfg, logger, m)
	}

	oauthClient := shopifyinfra.NewOAuthClient(cfg, logger)
	exchanger := shopifyinfra.NewTokenExchange(cfg, logger)

	oauthService := application.NewOAuthService(cfg, oauthClient, sessionStore, logger)
	wishlistService := application.NewWishlistService(adminClient, logger, m)

	router := api.NewRouter(api.Deps{
		Config:          cfg,
		Logger:          logger,
		Metrics:         m,
		OAuth:           oauthService,
		Wishlist:        wishlistService,
		Exchanger:       exchanger,
		Sessions:        sessionStore,
		WebhookVerifier: shopifyinfra.NewWebhookVerifier(cfg.APISecret),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Str("session_store", cfg.SessionStore).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, closing HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
