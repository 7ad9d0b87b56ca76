// Package handler exposes the HTTP API: the public menu, offer calculation
// and order placement endpoints, plus the API-key protected admin surface
// for authoring offers.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
	"github.com/platewise/dineflow/internal/domain/menu"
	"github.com/platewise/dineflow/internal/domain/offer"
	"github.com/platewise/dineflow/internal/domain/order"
)

// Calculator is the slice of the offers engine the quote endpoint needs.
type Calculator interface {
	Calculate(ctx context.Context, lines []cart.Line, customer offer.CustomerRef, promoCode string) offer.Result
}

// OrderPlacer is the slice of the order service the orders endpoint needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in menu responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler routes API requests to the domain services.
type Handler struct {
	menu         menu.Repository
	engine       Calculator
	offers       offer.Store
	orders       OrderPlacer
	imageBaseURL string
	lg           *zap.Logger
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	items menu.Repository,
	engine Calculator,
	offers offer.Store,
	orders OrderPlacer,
	lg *zap.Logger,
) *Handler {
	return &Handler{
		menu:         items,
		engine:       engine,
		offers:       offers,
		orders:       orders,
		imageBaseURL: cfg.ImageBaseURL,
		lg:           lg,
	}
}

// Register wires all routes into mux. Admin routes are wrapped with
// requireKey; pass nil to leave them unprotected (tests only).
func (h *Handler) Register(mux *http.ServeMux, requireKey func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/menu", h.ListMenu)
	mux.HandleFunc("GET /api/menu/categories", h.ListCategories)
	mux.HandleFunc("POST /api/offers/calculate", h.CalculateOffers)
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)

	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/offers", h.ListOffers)
	admin.HandleFunc("POST /api/admin/offers", h.CreateOffer)
	admin.HandleFunc("GET /api/admin/offers/{id}", h.GetOffer)
	admin.HandleFunc("PUT /api/admin/offers/{id}", h.UpdateOffer)
	admin.HandleFunc("DELETE /api/admin/offers/{id}", h.DeleteOffer)

	var adminHandler http.Handler = admin
	if requireKey != nil {
		adminHandler = requireKey(admin)
	}
	mux.Handle("/api/admin/", adminHandler)
}

// errorResponse is the wire shape of every error reply.
type errorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.lg.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Code: status, Message: message})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
