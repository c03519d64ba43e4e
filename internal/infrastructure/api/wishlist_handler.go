package api

import (
	"encoding/json"
	"net/http"

	"wishlist-shopify-layer/internal/application"
	"wishlist-shopify-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// WishlistHandler exposes the wishlist operations.
type WishlistHandler struct {
	svc        *application.WishlistService
	logger     zerolog.Logger
	production bool
}

// NewWishlistHandler builds the handler.
func NewWishlistHandler(svc *application.WishlistService, logger zerolog.Logger, production bool) *WishlistHandler {
	return &WishlistHandler{svc: svc, logger: logger, production: production}
}

type mutationRequest struct {
	ProductID     string `json:"productId"`
	ProductHandle string `json:"productHandle,omitempty"`
	CustomerID    string `json:"customerId,omitempty"`
}

// Add handles POST /api/wishlist/add. The missing-productId check answers
// before the identity check, so an anonymous request with no product still
// gets a 400.
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	req, identity, ok := h.mutationInputs(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.AddToWishlist(r.Context(), identity.CustomerID, req.ProductID, sessionFor(r, identity))
	if err != nil {
		writeError(w, err, h.production)
		return
	}
	writeData(w, summary)
}

// Remove handles POST /api/wishlist/remove.
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	req, identity, ok := h.mutationInputs(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.RemoveFromWishlist(r.Context(), identity.CustomerID, req.ProductID, sessionFor(r, identity))
	if err != nil {
		writeError(w, err, h.production)
		return
	}
	writeData(w, summary)
}

// GetByCustomer handles GET /api/wishlist/{customerID}.
func (h *WishlistHandler) GetByCustomer(w http.ResponseWriter, r *http.Request) {
	identity := domain.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeUnauthorized, "Customer not authenticated")
		return
	}

	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Customer ID is required")
		return
	}

	h.respondItems(w, r, customerID, identity)
}

// GetCurrent handles GET /api/wishlist/current for the resolved customer.
func (h *WishlistHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	identity := domain.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeUnauthorized, "Customer not authenticated")
		return
	}

	h.respondItems(w, r, identity.CustomerID, identity)
}

func (h *WishlistHandler) respondItems(w http.ResponseWriter, r *http.Request, customerID string, identity domain.ResolvedIdentity) {
	items, err := h.svc.GetWishlistWithProducts(r.Context(), customerID, sessionFor(r, identity))
	if err != nil {
		writeError(w, err, h.production)
		return
	}
	writeData(w, map[string]any{"items": items})
}

func (h *WishlistHandler) mutationInputs(w http.ResponseWriter, r *http.Request) (*mutationRequest, domain.ResolvedIdentity, bool) {
	var req mutationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.ProductID == "" {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Product ID is required")
		return nil, domain.ResolvedIdentity{}, false
	}

	identity := domain.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeUnauthorized, "Customer not authenticated")
		return nil, domain.ResolvedIdentity{}, false
	}
	return &req, identity, true
}

// sessionFor prefers the token-exchange session over one loaded from the
// shop parameter; both beat the static fallback inside the client.
func sessionFor(r *http.Request, identity domain.ResolvedIdentity) *domain.APISession {
	if identity.Session != nil {
		return identity.Session
	}
	return domain.APISessionFromContext(r.Context())
}
