package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
	"github.com/platewise/dineflow/internal/domain/offer"
	"github.com/platewise/dineflow/internal/domain/order"
)

type placeOrderRequest struct {
	Items     []calculateItem `json:"items"`
	Customer  customerPayload `json:"customer"`
	PromoCode string          `json:"promo_code,omitempty"`
}

type orderResponse struct {
	ID             string           `json:"id"`
	TableCode      string           `json:"table_code,omitempty"`
	Items          []cart.Line      `json:"items"`
	PromoCode      string           `json:"promo_code,omitempty"`
	OriginalAmount decimal.Decimal  `json:"original_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	AppliedOffers  []offer.Applied  `json:"applied_offers"`
	FreeItems      []offer.FreeItem `json:"free_items"`
	CreatedAt      time.Time        `json:"created_at"`
}

// PlaceOrder places an order: the full quote-then-persist flow, including
// post-commit offer usage bookkeeping inside the order service.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ItemID: it.ItemID, Quantity: it.Quantity}
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Items: items,
		Customer: offer.CustomerRef{
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
			TableCode: req.Customer.TableCode,
		},
		PromoCode: req.PromoCode,
	})
	if err != nil {
		h.mapOrderError(w, err)
		return
	}

	o := result.Order
	h.respondJSON(w, http.StatusCreated, orderResponse{
		ID:             o.ID,
		TableCode:      o.TableCode,
		Items:          o.Lines,
		PromoCode:      o.PromoCode,
		OriginalAmount: o.OriginalAmount,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		AppliedOffers:  o.AppliedOffers,
		FreeItems:      o.FreeItems,
		CreatedAt:      o.CreatedAt,
	})
}

// mapOrderError converts domain errors to HTTP error responses.
func (h *Handler) mapOrderError(w http.ResponseWriter, err error) {
	if errors.Is(err, order.ErrEmptyItems) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		h.respondError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var nfErr *order.ItemNotFoundError
	if errors.As(err, &nfErr) {
		h.respondError(w, http.StatusUnprocessableEntity, nfErr.Error())
		return
	}

	h.lg.Error("place order", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "internal error")
}
