package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/offer"
)

var (
	_ offer.Repository = (*OfferRepository)(nil)
	_ offer.Store      = (*OfferRepository)(nil)
)

// OfferRepository implements offer.Repository and offer.Store backed by
// PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool, lg *zap.Logger) *OfferRepository {
	return &OfferRepository{pool: pool, lg: lg}
}

const offerColumns = `id, name, description, offer_type, is_active, priority,
	start_date, end_date, valid_hours_start, valid_hours_end, valid_days,
	usage_limit, usage_count, promo_code, conditions, benefits`

// FetchCandidates returns offers structurally eligible at now. Activity and
// promo-code matching are filtered in SQL; date/time windows and the usage
// cap need time arithmetic and are filtered after the fetch.
func (r *OfferRepository) FetchCandidates(ctx context.Context, now time.Time, promoCode string) ([]offer.Definition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE is_active
		  AND (($1 = '' AND promo_code IS NULL)
		    OR ($1 <> '' AND upper(promo_code) = upper($1)))
		ORDER BY created_at, id`,
		promoCode,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query candidate offers")
	}

	defs, err := r.collectOffers(ctx, rows)
	if err != nil {
		return nil, err
	}

	return offer.FilterCandidates(defs, now, promoCode), nil
}

// collectOffers scans offer rows and attaches their line items. Rows whose
// attribute bags fail to decode are skipped with a warning so one malformed
// record never aborts a calculation.
func (r *OfferRepository) collectOffers(ctx context.Context, rows pgx.Rows) ([]offer.Definition, error) {
	defer rows.Close()

	var defs []offer.Definition
	for rows.Next() {
		d, rawConditions, rawBenefits, err := scanOffer(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan offer")
		}

		d.Conditions, err = decodeConditions(rawConditions)
		if err == nil {
			d.Benefits, err = decodeBenefits(rawBenefits)
		}
		if err != nil {
			r.lg.Warn("skipping malformed offer record",
				zap.String("offer_id", d.ID),
				zap.Error(err),
			)
			continue
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate offers")
	}

	if err := r.attachLineItems(ctx, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// scanOffer reads one offers row, returning the raw jsonb bags alongside the
// scalar fields so the caller can decide what a decode failure means.
func scanOffer(rows pgx.Rows) (offer.Definition, []byte, []byte, error) {
	var (
		d             offer.Definition
		hoursStart    *string
		hoursEnd      *string
		promoCode     *string
		rawConditions []byte
		rawBenefits   []byte
	)
	if err := rows.Scan(
		&d.ID, &d.Name, &d.Description, (*string)(&d.Type), &d.Active, &d.Priority,
		&d.StartDate, &d.EndDate, &hoursStart, &hoursEnd, &d.ValidDays,
		&d.UsageLimit, &d.UsageCount, &promoCode, &rawConditions, &rawBenefits,
	); err != nil {
		return offer.Definition{}, nil, nil, err
	}

	if hoursStart != nil {
		d.ValidHoursStart = *hoursStart
	}
	if hoursEnd != nil {
		d.ValidHoursEnd = *hoursEnd
	}
	if promoCode != nil {
		d.PromoCode = *promoCode
	}
	return d, rawConditions, rawBenefits, nil
}

// attachLineItems loads the line items for all given offers in one query.
func (r *OfferRepository) attachLineItems(ctx context.Context, defs []offer.Definition) error {
	if len(defs) == 0 {
		return nil
	}

	ids := make([]string, len(defs))
	index := make(map[string]int, len(defs))
	for i := range defs {
		ids[i] = defs[i].ID
		index[defs[i].ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT offer_id, item_id, category_id, name, quantity, role, unit_price
		FROM offer_line_items
		WHERE offer_id = ANY($1)
		ORDER BY offer_id, position, id`,
		ids,
	)
	if err != nil {
		return errors.Wrap(err, "query offer line items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			offerID    string
			itemID     *string
			categoryID *string
			li         offer.LineItem
		)
		if err := rows.Scan(&offerID, &itemID, &categoryID, &li.Name, &li.Quantity, (*string)(&li.Role), &li.UnitPrice); err != nil {
			return errors.Wrap(err, "scan offer line item")
		}
		if itemID != nil {
			li.ItemID = *itemID
		}
		if categoryID != nil {
			li.CategoryID = *categoryID
		}
		if i, ok := index[offerID]; ok {
			defs[i].Items = append(defs[i].Items, li)
		}
	}
	return errors.Wrap(rows.Err(), "iterate offer line items")
}

// RecordUsage inserts one usage row per record in a single batch.
func (r *OfferRepository) RecordUsage(ctx context.Context, records []offer.UsageRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO offer_usages (offer_id, order_id, customer_email, customer_phone, discount_amount, used_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.OfferID, rec.OrderID, rec.CustomerEmail, rec.CustomerPhone, rec.DiscountAmount, rec.UsedAt,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "insert usage records")
	}
	return nil
}

// IncrementUsageCount bumps the offer's usage counter with a single atomic
// UPDATE, never a read-modify-write, so concurrent orders cannot lose
// updates.
func (r *OfferRepository) IncrementUsageCount(ctx context.Context, offerID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE offers SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`,
		offerID,
	)
	return errors.Wrapf(err, "increment usage count for %s", offerID)
}

// --- Authoring-side store ---

// List returns every offer definition, newest last.
func (r *OfferRepository) List(ctx context.Context) ([]offer.Definition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+offerColumns+` FROM offers ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query offers")
	}
	return r.collectOffers(ctx, rows)
}

// Get returns a single offer definition with its line items.
func (r *OfferRepository) Get(ctx context.Context, id string) (*offer.Definition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query offer")
	}

	defs, err := r.collectOffers(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, offer.ErrNotFound
	}
	return &defs[0], nil
}

// Create inserts a new offer definition and its line items in one
// transaction.
func (r *OfferRepository) Create(ctx context.Context, d *offer.Definition) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO offers (id, name, description, offer_type, is_active, priority,
				start_date, end_date, valid_hours_start, valid_hours_end, valid_days,
				usage_limit, usage_count, promo_code, conditions, benefits)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			d.ID, d.Name, d.Description, string(d.Type), d.Active, d.Priority,
			d.StartDate, d.EndDate, nullable(d.ValidHoursStart), nullable(d.ValidHoursEnd), d.ValidDays,
			d.UsageLimit, d.UsageCount, nullable(d.PromoCode),
			encodeConditions(d.Conditions), encodeBenefits(d.Benefits),
		)
		if err != nil {
			return errors.Wrap(err, "insert offer")
		}
		return insertLineItems(ctx, tx, d)
	})
}

// Update rewrites the offer definition and replaces its line items. The
// usage counter is left alone: it belongs to the increment path.
func (r *OfferRepository) Update(ctx context.Context, d *offer.Definition) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE offers SET
				name = $2, description = $3, offer_type = $4, is_active = $5,
				priority = $6, start_date = $7, end_date = $8,
				valid_hours_start = $9, valid_hours_end = $10, valid_days = $11,
				usage_limit = $12, promo_code = $13, conditions = $14, benefits = $15,
				updated_at = now()
			WHERE id = $1`,
			d.ID, d.Name, d.Description, string(d.Type), d.Active, d.Priority,
			d.StartDate, d.EndDate, nullable(d.ValidHoursStart), nullable(d.ValidHoursEnd), d.ValidDays,
			d.UsageLimit, nullable(d.PromoCode),
			encodeConditions(d.Conditions), encodeBenefits(d.Benefits),
		)
		if err != nil {
			return errors.Wrap(err, "update offer")
		}
		if tag.RowsAffected() == 0 {
			return offer.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM offer_line_items WHERE offer_id = $1`, d.ID); err != nil {
			return errors.Wrap(err, "delete old line items")
		}
		return insertLineItems(ctx, tx, d)
	})
}

// Delete removes an offer; its line items and usage rows cascade.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete offer")
	}
	if tag.RowsAffected() == 0 {
		return offer.ErrNotFound
	}
	return nil
}

func insertLineItems(ctx context.Context, tx pgx.Tx, d *offer.Definition) error {
	for i, li := range d.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO offer_line_items (offer_id, item_id, category_id, name, quantity, role, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.ID, nullable(li.ItemID), nullable(li.CategoryID), li.Name,
			li.Quantity, string(li.Role), li.UnitPrice, i,
		)
		if err != nil {
			return errors.Wrapf(err, "insert line item %d", i)
		}
	}
	return nil
}

func (r *OfferRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit transaction")
}

// nullable maps the domain's empty-string convention onto SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
