// Command seed-db loads the demo menu, a set of demo offers, and an admin
// API key into the database. Safe to run repeatedly: everything is upserted.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/offer"
	"github.com/platewise/dineflow/internal/storage/postgres"
)

type menuFile struct {
	Categories []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Position int    `json:"position"`
	} `json:"categories"`
	Items []struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		CategoryID  string          `json:"category_id"`
		Vegetarian  bool            `json:"vegetarian"`
		ImageURL    string          `json:"image_url"`
	} `json:"items"`
}

type offerJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"offer_type"`

	Active          bool       `json:"is_active"`
	Priority        int        `json:"priority"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	ValidHoursStart string     `json:"valid_hours_start"`
	ValidHoursEnd   string     `json:"valid_hours_end"`
	ValidDays       []string   `json:"valid_days"`
	UsageLimit      int        `json:"usage_limit"`
	PromoCode       string     `json:"promo_code"`

	Conditions struct {
		MinAmount       decimal.Decimal `json:"min_amount"`
		ThresholdAmount decimal.Decimal `json:"threshold_amount"`
		MinOrdersCount  int             `json:"min_orders_count"`
		TargetSegment   string          `json:"target"`
		Categories      []string        `json:"categories"`
	} `json:"conditions"`

	Benefits struct {
		DiscountPercentage decimal.Decimal `json:"discount_percentage"`
		DiscountAmount     decimal.Decimal `json:"discount_amount"`
		MaxDiscountAmount  decimal.Decimal `json:"max_discount_amount"`
		BuyQuantity        int             `json:"buy_quantity"`
		GetQuantity        int             `json:"get_quantity"`
		GetSameItem        bool            `json:"get_same_item"`
		ComboPrice         decimal.Decimal `json:"combo_price"`
		MaxFreePrice       decimal.Decimal `json:"max_price"`
	} `json:"benefits"`

	Items []struct {
		ItemID     string `json:"item_id"`
		CategoryID string `json:"category_id"`
		Quantity   int    `json:"quantity"`
		Role       string `json:"role"`
	} `json:"items"`
}

func main() {
	var (
		databaseURL  string
		menuPath     string
		offersPath   string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuPath, "menu-file", "db/seed/menu.json", "path to menu JSON file")
	flag.StringVar(&offersPath, "offers-file", "db/seed/offers.json", "path to offers JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or DINE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or DINE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("DINE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or DINE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("DINE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuPath, offersPath, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuPath, offersPath, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, pool, menuPath); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedOffers(ctx, pool, offersPath); err != nil {
		return errors.Wrap(err, "seed offers")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading menu file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	var m menuFile
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	slog.Info("upserting menu",
		slog.Int("categories", len(m.Categories)),
		slog.Int("items", len(m.Items)),
	)

	for _, c := range m.Categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO menu_categories (id, name, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = $2, position = $3`,
			c.ID, c.Name, c.Position,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	for _, it := range m.Items {
		_, err := pool.Exec(ctx, `
			INSERT INTO menu_items (id, name, description, price, category_id, vegetarian, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = $2, description = $3, price = $4,
				category_id = $5, vegetarian = $6, image_url = $7`,
			it.ID, it.Name, it.Description, it.Price, it.CategoryID, it.Vegetarian, it.ImageURL,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.ID)
		}
	}
	return nil
}

func seedOffers(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading offers file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read offers file")
	}

	var defsJSON []offerJSON
	if err := json.Unmarshal(data, &defsJSON); err != nil {
		return errors.Wrap(err, "parse offers JSON")
	}

	store := postgres.NewOfferRepository(pool, zap.NewNop())

	for _, oj := range defsJSON {
		d := toDefinition(oj)
		if err := offer.ValidateForAuthoring(d); err != nil {
			return errors.Wrapf(err, "offer %s", d.ID)
		}

		// Update first so re-running the seed keeps usage counters intact.
		err := store.Update(ctx, d)
		if errors.Is(err, offer.ErrNotFound) {
			err = store.Create(ctx, d)
		}
		if err != nil {
			return errors.Wrapf(err, "upsert offer %s", d.ID)
		}

		slog.Info("upserted offer", slog.String("id", d.ID), slog.String("name", d.Name))
	}
	return nil
}

func toDefinition(oj offerJSON) *offer.Definition {
	items := make([]offer.LineItem, len(oj.Items))
	for i, li := range oj.Items {
		items[i] = offer.LineItem{
			ItemID:     li.ItemID,
			CategoryID: li.CategoryID,
			Quantity:   li.Quantity,
			Role:       offer.Role(li.Role),
		}
	}
	return &offer.Definition{
		ID:              oj.ID,
		Name:            oj.Name,
		Description:     oj.Description,
		Type:            offer.Type(oj.Type),
		Active:          oj.Active,
		Priority:        oj.Priority,
		StartDate:       oj.StartDate,
		EndDate:         oj.EndDate,
		ValidHoursStart: oj.ValidHoursStart,
		ValidHoursEnd:   oj.ValidHoursEnd,
		ValidDays:       oj.ValidDays,
		UsageLimit:      oj.UsageLimit,
		PromoCode:       oj.PromoCode,
		Conditions: offer.Conditions{
			MinAmount:       oj.Conditions.MinAmount,
			ThresholdAmount: oj.Conditions.ThresholdAmount,
			MinOrdersCount:  oj.Conditions.MinOrdersCount,
			TargetSegment:   offer.Segment(oj.Conditions.TargetSegment),
			Categories:      oj.Conditions.Categories,
		},
		Benefits: offer.Benefits{
			DiscountPercentage: oj.Benefits.DiscountPercentage,
			DiscountAmount:     oj.Benefits.DiscountAmount,
			MaxDiscountAmount:  oj.Benefits.MaxDiscountAmount,
			BuyQuantity:        oj.Benefits.BuyQuantity,
			GetQuantity:        oj.Benefits.GetQuantity,
			GetSameItem:        oj.Benefits.GetSameItem,
			ComboPrice:         oj.Benefits.ComboPrice,
			MaxFreePrice:       oj.Benefits.MaxFreePrice,
		},
		Items: items,
	}
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `
		INSERT INTO api_keys (id, key_hash, name, scopes, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = $2, name = $3, scopes = $4, is_active = TRUE`,
		"default", keyHash, "Default admin key", []string{"manage_offers"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
