package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/dineflow/internal/domain/offer"
	"github.com/platewise/dineflow/internal/domain/order"
)

// OrderRepository persists placed orders and answers prior-order lookups
// for customer segment checks.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

var (
	_ order.Repository   = (*OrderRepository)(nil)
	_ offer.OrderHistory = (*OrderRepository)(nil)
)

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}
	applied, err := json.Marshal(o.AppliedOffers)
	if err != nil {
		return errors.Wrap(err, "marshal applied offers")
	}
	free, err := json.Marshal(o.FreeItems)
	if err != nil {
		return errors.Wrap(err, "marshal free items")
	}

	const query = `
		INSERT INTO orders (
			id, table_code, customer_email, customer_phone, items, promo_code,
			original_amount, discount_amount, total_amount, applied_offers, free_items
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	row := r.pool.QueryRow(ctx, query,
		o.ID, o.TableCode, o.CustomerEmail, o.CustomerPhone, items, o.PromoCode,
		o.OriginalAmount, o.DiscountAmount, o.TotalAmount, applied, free,
	)
	if err := row.Scan(&o.CreatedAt); err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

// CountPriorOrders counts completed orders for the given customer reference.
// Email and phone are alternative identities; either match counts.
func (r *OrderRepository) CountPriorOrders(ctx context.Context, customer offer.CustomerRef) (int, error) {
	const query = `
		SELECT count(*) FROM orders
		WHERE (customer_email = $1 AND $1 <> '')
		   OR (customer_phone = $2 AND $2 <> '')`

	var count int
	if err := r.pool.QueryRow(ctx, query, customer.Email, customer.Phone).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count prior orders")
	}
	return count, nil
}
