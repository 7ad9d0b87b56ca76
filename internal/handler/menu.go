package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/menu"
)

type menuItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	Vegetarian  bool            `json:"vegetarian"`
	ImageURL    string          `json:"image_url,omitempty"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListMenu returns available menu items, optionally filtered by the
// "category" query parameter.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	var (
		items []menu.Item
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		items, err = h.menu.ListByCategory(r.Context(), category)
	} else {
		items, err = h.menu.List(r.Context())
	}
	if err != nil {
		h.lg.Error("list menu", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = h.toMenuItemResponse(it)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// ListCategories returns menu categories in display order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.menu.ListCategories(r.Context())
	if err != nil {
		h.lg.Error("list categories", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) toMenuItemResponse(it menu.Item) menuItemResponse {
	resp := menuItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price,
		CategoryID:  it.CategoryID,
		Vegetarian:  it.Vegetarian,
		ImageURL:    it.ImageURL,
	}
	if h.imageBaseURL != "" && resp.ImageURL != "" && !strings.HasPrefix(resp.ImageURL, "http") {
		resp.ImageURL = strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(resp.ImageURL, "/")
	}
	return resp
}
