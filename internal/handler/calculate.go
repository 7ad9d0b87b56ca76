package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
	"github.com/platewise/dineflow/internal/domain/offer"
)

type calculateItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type customerPayload struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TableCode string `json:"table_code,omitempty"`
}

type calculateRequest struct {
	Items     []calculateItem `json:"items"`
	Customer  customerPayload `json:"customer"`
	PromoCode string          `json:"promo_code,omitempty"`
}

// CalculateOffers prices a cart without placing an order: it resolves the
// requested items against the menu, runs the offer calculation, and returns
// the quote. No usage is recorded.
func (h *Handler) CalculateOffers(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "items required")
		return
	}

	lines, clientErr, err := h.resolveLines(r, req.Items)
	if err != nil {
		h.lg.Error("resolve cart lines", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if clientErr != "" {
		h.respondError(w, http.StatusUnprocessableEntity, clientErr)
		return
	}

	result := h.engine.Calculate(r.Context(), lines, offer.CustomerRef{
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
		TableCode: req.Customer.TableCode,
	}, req.PromoCode)

	h.respondJSON(w, http.StatusOK, result)
}

// resolveLines turns requested item ids into priced cart lines. A non-empty
// clientErr names the first invalid or unknown item.
func (h *Handler) resolveLines(r *http.Request, items []calculateItem) (lines []cart.Line, clientErr string, err error) {
	ids := make([]string, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Sprintf("quantity must be greater than 0 for item %s", it.ItemID), nil
		}
		ids[i] = it.ItemID
	}

	fetched, err := h.menu.GetByIDs(r.Context(), ids)
	if err != nil {
		return nil, "", err
	}

	index := make(map[string]int, len(fetched))
	for i := range fetched {
		index[fetched[i].ID] = i
	}

	lines = make([]cart.Line, len(items))
	for i, it := range items {
		pos, ok := index[it.ItemID]
		if !ok {
			return nil, fmt.Sprintf("menu item %s not found", it.ItemID), nil
		}
		m := fetched[pos]
		lines[i] = cart.Line{
			ItemID:     m.ID,
			Name:       m.Name,
			UnitPrice:  m.Price,
			Quantity:   it.Quantity,
			CategoryID: m.CategoryID,
			Vegetarian: m.Vegetarian,
		}
	}
	return lines, "", nil
}
