package api

import (
	"io"
	"net/http"

	"wishlist-shopify-layer/internal/application"
	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
)

// WebhookHandler receives the app/uninstalled webhook so a store that
// removes the app gets its stored token cleaned up without waiting for the
// manual uninstall endpoint.
type WebhookHandler struct {
	svc      *application.OAuthService
	verifier *shopify.WebhookVerifier
	logger   zerolog.Logger
}

// NewWebhookHandler builds the handler; the verifier is keyed with the app
// API secret.
func NewWebhookHandler(svc *application.OAuthService, verifier *shopify.WebhookVerifier, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, verifier: verifier, logger: logger}
}

// AppUninstalled handles POST /api/webhooks/app-uninstalled.
func (h *WebhookHandler) AppUninstalled(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Failed to read request body")
		return
	}

	if err := h.verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeInvalidHMAC, "Invalid webhook signature")
		return
	}

	shop := r.Header.Get("X-Shopify-Shop-Domain")
	if shop == "" {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Missing X-Shopify-Shop-Domain header")
		return
	}

	if err := h.svc.Uninstall(r.Context(), shop); err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("failed to process uninstall webhook")
		// 500 asks Shopify to retry the delivery.
		writeError(w, err, true)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
