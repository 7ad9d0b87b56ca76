package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/dineflow/internal/domain/menu"
)

// MenuRepository serves the read-only menu catalog.
type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

var _ menu.Repository = (*MenuRepository)(nil)

const menuColumns = `id, name, description, price, category_id, vegetarian, available, image_url`

func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE available ORDER BY category_id, name`)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items")
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *MenuRepository) ListByCategory(ctx context.Context, categoryID string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE available AND category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items by category")
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *MenuRepository) ListCategories(ctx context.Context) ([]menu.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, position FROM menu_categories ORDER BY position, name`)
	if err != nil {
		return nil, errors.Wrap(err, "query menu categories")
	}
	defer rows.Close()

	var categories []menu.Category
	for rows.Next() {
		var c menu.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Position); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetByIDs returns the items matching ids. Missing ids are simply absent
// from the result; the caller decides whether that is an error.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items by ids")
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]menu.Item, error) {
	var items []menu.Item
	for rows.Next() {
		var (
			it          menu.Item
			description *string
			imageURL    *string
		)
		if err := rows.Scan(&it.ID, &it.Name, &description, &it.Price, &it.CategoryID, &it.Vegetarian, &it.Available, &imageURL); err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		if description != nil {
			it.Description = *description
		}
		if imageURL != nil {
			it.ImageURL = *imageURL
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
