// Package handler exposes the core over HTTP, mirroring the demo shop API:
// cart retrieval and mutation, checkout, and the admin stats/generate
// endpoints. Transport concerns only; all business rules live in the domain
// packages.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
	"github.com/shopkart/shopkart/internal/domain/order"
)

// defaultUserID is used when a request carries no X-User-Id header. Proper
// authentication is an external collaborator; the demo runs single-user by
// default.
const defaultUserID = "demo-user"

// Handler holds the domain dependencies for all routes.
type Handler struct {
	carts    *cart.Manager
	codes    *discount.Engine
	checkout *order.Service
	orders   order.Repository

	validate *validator.Validate
}

// New constructs a Handler with the required domain dependencies.
func New(
	carts *cart.Manager,
	codes *discount.Engine,
	checkout *order.Service,
	orders order.Repository,
) *Handler {
	return &Handler{
		carts:    carts,
		codes:    codes,
		checkout: checkout,
		orders:   orders,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes returns the API router. The caller mounts it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/cart", h.getCart)
	r.Post("/cart/add", h.addToCart)
	r.Post("/cart/apply-discount", h.applyDiscount)
	r.Post("/checkout", h.checkoutCart)
	r.Get("/admin/stats", h.getStats)
	r.Post("/admin/discount/generate", h.generateDiscount)
	return r
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-Id"); id != "" {
		return id
	}
	return defaultUserID
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, errorResponse{Error: msg})
}

// internalError logs the error with the request-scoped logger and hides the
// detail from the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
