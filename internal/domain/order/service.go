package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
	"github.com/platewise/dineflow/internal/domain/menu"
	"github.com/platewise/dineflow/internal/domain/offer"
)

// Sentinel errors for order validation.
var ErrEmptyItems = fmt.Errorf("items required")

// ItemNotFoundError indicates a requested menu item does not exist.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.ItemID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.ItemID)
}

// Calculator is the slice of the offers engine the order service needs.
type Calculator interface {
	Calculate(ctx context.Context, lines []cart.Line, customer offer.CustomerRef, promoCode string) offer.Result
	RecordUsage(ctx context.Context, applied []offer.Applied, orderID string, customer offer.CustomerRef) error
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ItemID   string
	Quantity int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items     []ItemRequest
	Customer  offer.CustomerRef
	PromoCode string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order *Order
}

// Service encapsulates order placement business logic.
type Service struct {
	items  menu.Repository
	offers Calculator
	orders Repository
	lg     *zap.Logger
}

// NewService creates an order Service with the required domain dependencies.
func NewService(items menu.Repository, offers Calculator, orders Repository, lg *zap.Logger) *Service {
	return &Service{
		items:  items,
		offers: offers,
		orders: orders,
		lg:     lg,
	}
}

// PlaceOrder validates items, fetches menu items in a single batch, runs the
// offer calculation, persists the order, and then records offer usage. Usage
// bookkeeping is post-commit: a failure there is logged and never unwinds
// the already-placed order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ItemID: item.ItemID}
		}
		ids[i] = item.ItemID
	}

	fetched, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}

	itemMap := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		itemMap[it.ID] = it
	}

	lines := make([]cart.Line, len(req.Items))
	for i, item := range req.Items {
		it, ok := itemMap[item.ItemID]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: item.ItemID}
		}
		lines[i] = cart.Line{
			ItemID:     it.ID,
			Name:       it.Name,
			UnitPrice:  it.Price,
			Quantity:   item.Quantity,
			CategoryID: it.CategoryID,
			Vegetarian: it.Vegetarian,
		}
	}

	result := s.offers.Calculate(ctx, lines, req.Customer, req.PromoCode)

	o := &Order{
		ID:             uuid.New().String(),
		TableCode:      req.Customer.TableCode,
		CustomerEmail:  req.Customer.Email,
		CustomerPhone:  req.Customer.Phone,
		Lines:          lines,
		PromoCode:      req.PromoCode,
		OriginalAmount: result.OriginalAmount,
		DiscountAmount: result.DiscountAmount,
		TotalAmount:    result.FinalAmount,
		AppliedOffers:  result.Applied,
		FreeItems:      result.FreeItems,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.offers.RecordUsage(ctx, result.Applied, o.ID, req.Customer); err != nil {
		s.lg.Error("offer usage recording failed after order commit",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return &PlaceOrderResult{Order: o}, nil
}
