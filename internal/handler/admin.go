package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/offer"
)

// offerPayload is the wire shape of an offer definition on the admin API.
type offerPayload struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"offer_type"`

	Active          bool       `json:"is_active"`
	Priority        int        `json:"priority"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	ValidHoursStart string     `json:"valid_hours_start,omitempty"`
	ValidHoursEnd   string     `json:"valid_hours_end,omitempty"`
	ValidDays       []string   `json:"valid_days,omitempty"`
	UsageLimit      int        `json:"usage_limit,omitempty"`
	UsageCount      int        `json:"usage_count,omitempty"`
	PromoCode       string     `json:"promo_code,omitempty"`

	Conditions conditionsPayload `json:"conditions"`
	Benefits   benefitsPayload   `json:"benefits"`
	Items      []lineItemPayload `json:"items,omitempty"`
}

type conditionsPayload struct {
	MinAmount       decimal.Decimal `json:"min_amount,omitempty"`
	ThresholdAmount decimal.Decimal `json:"threshold_amount,omitempty"`
	MinOrdersCount  int             `json:"min_orders_count,omitempty"`
	TargetSegment   string          `json:"target,omitempty"`
	Categories      []string        `json:"categories,omitempty"`
}

type benefitsPayload struct {
	DiscountPercentage decimal.Decimal `json:"discount_percentage,omitempty"`
	DiscountAmount     decimal.Decimal `json:"discount_amount,omitempty"`
	MaxDiscountAmount  decimal.Decimal `json:"max_discount_amount,omitempty"`
	BuyQuantity        int             `json:"buy_quantity,omitempty"`
	GetQuantity        int             `json:"get_quantity,omitempty"`
	GetSameItem        bool            `json:"get_same_item,omitempty"`
	ComboPrice         decimal.Decimal `json:"combo_price,omitempty"`
	MaxFreePrice       decimal.Decimal `json:"max_price,omitempty"`
}

type lineItemPayload struct {
	ItemID     string          `json:"item_id,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity"`
	Role       string          `json:"role"`
	UnitPrice  decimal.Decimal `json:"unit_price,omitempty"`
}

func (p *offerPayload) toDefinition() *offer.Definition {
	items := make([]offer.LineItem, len(p.Items))
	for i, li := range p.Items {
		items[i] = offer.LineItem{
			ItemID:     li.ItemID,
			CategoryID: li.CategoryID,
			Name:       li.Name,
			Quantity:   li.Quantity,
			Role:       offer.Role(li.Role),
			UnitPrice:  li.UnitPrice,
		}
	}
	return &offer.Definition{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Type:            offer.Type(p.Type),
		Active:          p.Active,
		Priority:        p.Priority,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		ValidHoursStart: p.ValidHoursStart,
		ValidHoursEnd:   p.ValidHoursEnd,
		ValidDays:       p.ValidDays,
		UsageLimit:      p.UsageLimit,
		PromoCode:       p.PromoCode,
		Conditions: offer.Conditions{
			MinAmount:       p.Conditions.MinAmount,
			ThresholdAmount: p.Conditions.ThresholdAmount,
			MinOrdersCount:  p.Conditions.MinOrdersCount,
			TargetSegment:   offer.Segment(p.Conditions.TargetSegment),
			Categories:      p.Conditions.Categories,
		},
		Benefits: offer.Benefits{
			DiscountPercentage: p.Benefits.DiscountPercentage,
			DiscountAmount:     p.Benefits.DiscountAmount,
			MaxDiscountAmount:  p.Benefits.MaxDiscountAmount,
			BuyQuantity:        p.Benefits.BuyQuantity,
			GetQuantity:        p.Benefits.GetQuantity,
			GetSameItem:        p.Benefits.GetSameItem,
			ComboPrice:         p.Benefits.ComboPrice,
			MaxFreePrice:       p.Benefits.MaxFreePrice,
		},
		Items: items,
	}
}

func fromDefinition(d *offer.Definition) offerPayload {
	items := make([]lineItemPayload, len(d.Items))
	for i, li := range d.Items {
		items[i] = lineItemPayload{
			ItemID:     li.ItemID,
			CategoryID: li.CategoryID,
			Name:       li.Name,
			Quantity:   li.Quantity,
			Role:       string(li.Role),
			UnitPrice:  li.UnitPrice,
		}
	}
	return offerPayload{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		Type:            string(d.Type),
		Active:          d.Active,
		Priority:        d.Priority,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		ValidHoursStart: d.ValidHoursStart,
		ValidHoursEnd:   d.ValidHoursEnd,
		ValidDays:       d.ValidDays,
		UsageLimit:      d.UsageLimit,
		UsageCount:      d.UsageCount,
		PromoCode:       d.PromoCode,
		Conditions: conditionsPayload{
			MinAmount:       d.Conditions.MinAmount,
			ThresholdAmount: d.Conditions.ThresholdAmount,
			MinOrdersCount:  d.Conditions.MinOrdersCount,
			TargetSegment:   string(d.Conditions.TargetSegment),
			Categories:      d.Conditions.Categories,
		},
		Benefits: benefitsPayload{
			DiscountPercentage: d.Benefits.DiscountPercentage,
			DiscountAmount:     d.Benefits.DiscountAmount,
			MaxDiscountAmount:  d.Benefits.MaxDiscountAmount,
			BuyQuantity:        d.Benefits.BuyQuantity,
			GetQuantity:        d.Benefits.GetQuantity,
			GetSameItem:        d.Benefits.GetSameItem,
			ComboPrice:         d.Benefits.ComboPrice,
			MaxFreePrice:       d.Benefits.MaxFreePrice,
		},
		Items: items,
	}
}

// ListOffers returns every offer definition, including inactive ones.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	defs, err := h.offers.List(r.Context())
	if err != nil {
		h.lg.Error("list offers", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]offerPayload, len(defs))
	for i := range defs {
		resp[i] = fromDefinition(&defs[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	d, err := h.offers.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, offer.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "offer not found")
		return
	}
	if err != nil {
		h.lg.Error("get offer", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, fromDefinition(d))
}

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var payload offerPayload
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	d := payload.toDefinition()
	if !h.validateOffer(w, d) {
		return
	}

	if err := h.offers.Create(r.Context(), d); err != nil {
		h.lg.Error("create offer", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusCreated, fromDefinition(d))
}

func (h *Handler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	var payload offerPayload
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	d := payload.toDefinition()
	d.ID = r.PathValue("id")
	if !h.validateOffer(w, d) {
		return
	}

	err := h.offers.Update(r.Context(), d)
	if errors.Is(err, offer.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "offer not found")
		return
	}
	if err != nil {
		h.lg.Error("update offer", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, fromDefinition(d))
}

func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	err := h.offers.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, offer.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "offer not found")
		return
	}
	if err != nil {
		h.lg.Error("delete offer", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateOffer rejects definitions that would be no-ops or silently skipped
// at calculation time. On failure it writes a 422 listing every field error.
func (h *Handler) validateOffer(w http.ResponseWriter, d *offer.Definition) bool {
	err := offer.ValidateForAuthoring(d)
	if err == nil {
		return true
	}

	resp := errorResponse{
		Code:    http.StatusUnprocessableEntity,
		Message: "invalid offer definition",
	}
	var verrs offer.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, fieldError{Field: fe.Field, Reason: fe.Reason})
		}
	} else {
		resp.Message = err.Error()
	}
	h.respondJSON(w, http.StatusUnprocessableEntity, resp)
	return false
}
