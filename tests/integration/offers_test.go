//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCalculate_NoOffers(t *testing.T) {
	// A single bruschetta stays under every cart minimum, and without a promo
	// code only codeless offers are considered.
	req := calculateRequest{
		Items: []cartItemRequest{{ItemID: "starter-bruschetta", Quantity: 1}},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[calculateResponse](t, resp)
	if quote.OriginalAmount != 120 {
		t.Errorf("original: got %v, want 120", quote.OriginalAmount)
	}
	if quote.FinalAmount != quote.OriginalAmount-quote.DiscountAmount {
		t.Errorf("final %v != original %v - discount %v",
			quote.FinalAmount, quote.OriginalAmount, quote.DiscountAmount)
	}
}

func TestCalculate_PromoCode(t *testing.T) {
	// With a promo code only the matching offer is considered, so the quote
	// is deterministic regardless of weekday or time of day.
	req := calculateRequest{
		Items:     []cartItemRequest{{ItemID: "pizza-margherita", Quantity: 2}},
		PromoCode: "SAVE10",
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[calculateResponse](t, resp)
	if quote.OriginalAmount != 500 {
		t.Errorf("original: got %v, want 500", quote.OriginalAmount)
	}
	if quote.DiscountAmount != 50 {
		t.Errorf("discount: got %v, want 50", quote.DiscountAmount)
	}
	if quote.FinalAmount != 450 {
		t.Errorf("final: got %v, want 450", quote.FinalAmount)
	}
	if len(quote.AppliedOffers) != 1 || quote.AppliedOffers[0].OfferID != "demo-promo-save10" {
		t.Errorf("applied offers: got %+v, want demo-promo-save10", quote.AppliedOffers)
	}
}

func TestCalculate_PromoCodeCaseInsensitive(t *testing.T) {
	req := calculateRequest{
		Items:     []cartItemRequest{{ItemID: "pizza-margherita", Quantity: 2}},
		PromoCode: "save10",
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	quote := decodeJSON[calculateResponse](t, resp)
	if quote.DiscountAmount != 50 {
		t.Errorf("discount: got %v, want 50", quote.DiscountAmount)
	}
}

func TestCalculate_UnknownPromoCode(t *testing.T) {
	// Unknown codes never fail the calculation; they just apply nothing.
	req := calculateRequest{
		Items:     []cartItemRequest{{ItemID: "starter-bruschetta", Quantity: 1}},
		PromoCode: "NONEXISTENT",
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[calculateResponse](t, resp)
	if quote.DiscountAmount != 0 {
		t.Errorf("discount: got %v, want 0", quote.DiscountAmount)
	}
}

func TestCalculate_UnknownItem(t *testing.T) {
	req := calculateRequest{
		Items: []cartItemRequest{{ItemID: "ghost-item", Quantity: 1}},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestAdminOffers_RequireAuth(t *testing.T) {
	resp := doJSON(t, http.MethodGet, "/api/admin/offers", nil, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminOffers_InvalidKey(t *testing.T) {
	resp := doJSON(t, http.MethodGet, "/api/admin/offers", nil, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminOffers_List(t *testing.T) {
	resp := doJSON(t, http.MethodGet, "/api/admin/offers", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	offers := decodeJSON[[]map[string]any](t, resp)
	if len(offers) < 9 {
		t.Fatalf("expected at least 9 seeded offers, got %d", len(offers))
	}
}

func TestAdminOffers_CreateValidatesDefinition(t *testing.T) {
	// A percentage offer without a percentage would be a silent no-op.
	body := map[string]any{
		"name":       "Broken",
		"offer_type": "cart_percentage",
		"is_active":  true,
	}
	resp := doJSON(t, http.MethodPost, "/api/admin/offers", body, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if len(errResp.Fields) == 0 {
		t.Error("expected field errors in 422 response")
	}
}

func TestAdminOffers_CRUD(t *testing.T) {
	create := map[string]any{
		"name":       "Integration Special",
		"offer_type": "promo_code",
		"is_active":  true,
		"promo_code": "ITEST20",
		"benefits":   map[string]any{"discount_percentage": "20"},
	}
	resp := doJSON(t, http.MethodPost, "/api/admin/offers", create, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[map[string]any](t, resp)
	resp.Body.Close()

	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created offer has no id")
	}

	// The new promo code is immediately live.
	quote := doPost(t, "/api/offers/calculate", calculateRequest{
		Items:     []cartItemRequest{{ItemID: "starter-bruschetta", Quantity: 1}},
		PromoCode: "ITEST20",
	})
	q := decodeJSON[calculateResponse](t, quote)
	quote.Body.Close()
	if q.DiscountAmount != 24 {
		t.Errorf("discount: got %v, want 24", q.DiscountAmount)
	}

	// Update the percentage.
	create["benefits"] = map[string]any{"discount_percentage": "25"}
	resp = doJSON(t, http.MethodPut, "/api/admin/offers/"+id, create, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete, then verify it is gone.
	resp = doJSON(t, http.MethodDelete, "/api/admin/offers/"+id, nil, testAPIKey)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, "/api/admin/offers/"+id, nil, testAPIKey)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
