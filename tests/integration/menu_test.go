//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListMenu(t *testing.T) {
	resp := doGet(t, "/api/menu")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]menuItemResponse](t, resp)
	if len(items) != seededItems {
		t.Fatalf("expected %d items, got %d", seededItems, len(items))
	}
}

func TestListMenu_CategoryFilter(t *testing.T) {
	resp := doGet(t, "/api/menu?category=pizza")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]menuItemResponse](t, resp)
	if len(items) != 2 {
		t.Fatalf("expected 2 pizza items, got %d", len(items))
	}
	for _, it := range items {
		if it.CategoryID != "pizza" {
			t.Errorf("item %s: category %q, want pizza", it.ID, it.CategoryID)
		}
	}
}

func TestListMenu_Fields(t *testing.T) {
	resp := doGet(t, "/api/menu")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]menuItemResponse](t, resp)

	var margherita *menuItemResponse
	for i := range items {
		if items[i].ID == "pizza-margherita" {
			margherita = &items[i]
			break
		}
	}

	if margherita == nil {
		t.Fatal("item pizza-margherita not found")
	}
	if margherita.Name != "Margherita" {
		t.Errorf("name: got %q, want %q", margherita.Name, "Margherita")
	}
	if margherita.Price != 250 {
		t.Errorf("price: got %v, want 250", margherita.Price)
	}
	if margherita.CategoryID != "pizza" {
		t.Errorf("category: got %q, want %q", margherita.CategoryID, "pizza")
	}
	if !margherita.Vegetarian {
		t.Error("margherita should be vegetarian")
	}
}

func TestListCategories(t *testing.T) {
	resp := doGet(t, "/api/menu/categories")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	categories := decodeJSON[[]categoryResponse](t, resp)
	if len(categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(categories))
	}
	// Seeded positions put starters first.
	if categories[0].ID != "starters" {
		t.Errorf("first category: got %q, want %q", categories[0].ID, "starters")
	}
}
