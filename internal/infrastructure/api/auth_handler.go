package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/application"
	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

const nonceCookieName = "shopify_nonce"

// AuthHandler exposes the OAuth flow over HTTP and owns the signed nonce
// cookie that pairs with the server-side nonce for double-submit
// verification.
type AuthHandler struct {
	svc    *application.OAuthService
	cfg    *config.Config
	logger zerolog.Logger
}

// NewAuthHandler builds the handler.
func NewAuthHandler(svc *application.OAuthService, cfg *config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg, logger: logger}
}

// Initiate handles GET /api/auth/shopify: validate, set the nonce cookie
// and redirect the browser to the consent screen.
func (h *AuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")

	authURL, nonce, err := h.svc.Begin(r.Context(), shop, r.URL.Query())
	if err != nil {
		writeError(w, err, h.cfg.Production())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    h.signNonce(nonce),
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /api/auth/callback: verify everything, exchange the
// code, clear the nonce cookie and bounce back to the app.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	redirectURL, err := h.svc.Complete(r.Context(), application.CallbackParams{
		Shop:        query.Get("shop"),
		Code:        query.Get("code"),
		State:       query.Get("state"),
		CookieNonce: h.nonceFromCookie(r),
		Query:       query,
	})
	if err != nil {
		writeError(w, err, h.cfg.Production())
		return
	}

	h.clearNonceCookie(w)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Verify(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		writeError(w, err, h.cfg.Production())
		return
	}

	resp := map[string]any{
		"success":       true,
		"authenticated": status.Authenticated,
	}
	if status.Shop != "" {
		resp["shop"] = status.Shop
	}
	if status.Authenticated {
		resp["scope"] = status.Scope
		resp["installedAt"] = status.InstalledAt.Format(time.RFC3339)
	} else {
		resp["message"] = "No active session found"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Uninstall handles POST /api/auth/uninstall.
func (h *AuthHandler) Uninstall(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Shop string `json:"shop"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Shop parameter is required")
		return
	}

	if err := h.svc.Uninstall(r.Context(), body.Shop); err != nil {
		writeError(w, err, h.cfg.Production())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session removed successfully",
	})
}

// signNonce appends an HMAC so a tampered cookie never matches.
func (h *AuthHandler) signNonce(nonce string) string {
	return nonce + "." + h.nonceMAC(nonce)
}

// nonceFromCookie returns the verified nonce, or "" when the cookie is
// missing or its signature does not check out.
func (h *AuthHandler) nonceFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(nonceCookieName)
	if err != nil {
		return ""
	}
	nonce, mac, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(mac), []byte(h.nonceMAC(nonce))) {
		return ""
	}
	return nonce
}

func (h *AuthHandler) nonceMAC(nonce string) string {
	mac := hmac.New(sha256.New, []byte(h.cfg.SessionSecret))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *AuthHandler) clearNonceCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Production(),
	})
}
