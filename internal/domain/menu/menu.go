// Package menu defines the menu catalog types and repository contract.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item is one purchasable menu entry.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Vegetarian  bool
	Available   bool
	ImageURL    string
}

// Category groups menu items for browsing.
type Category struct {
	ID       string
	Name     string
	Position int
}

// Repository defines read operations for the menu catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Item, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}
