package offer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
)

// --- Mock implementations ---

type mockOfferRepo struct {
	defs         []Definition
	fetchErr     error
	gotPromoCode string
	gotNow       time.Time
	usageRecords []UsageRecord
	incremented  []string
	recordErr    error
	incrementErr error
}

func (m *mockOfferRepo) FetchCandidates(_ context.Context, now time.Time, promoCode string) ([]Definition, error) {
	m.gotNow = now
	m.gotPromoCode = promoCode
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return FilterCandidates(m.defs, now, promoCode), nil
}

func (m *mockOfferRepo) RecordUsage(_ context.Context, records []UsageRecord) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.usageRecords = append(m.usageRecords, records...)
	return nil
}

func (m *mockOfferRepo) IncrementUsageCount(_ context.Context, offerID string) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.incremented = append(m.incremented, offerID)
	return nil
}

type mockHistory struct {
	count int
	err   error
	calls int
}

func (m *mockHistory) CountPriorOrders(_ context.Context, _ CustomerRef) (int, error) {
	m.calls++
	return m.count, m.err
}

func newTestEngine(repo Repository, history OrderHistory, opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return monday })}, opts...)
	return NewEngine(repo, history, zap.NewNop(), opts...)
}

// --- Tests ---

func TestCalculate_NoEligibleOffers(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:         "min500",
				Type:       TypeCartPercentage,
				Conditions: Conditions{MinAmount: dec("500")},
				Benefits:   Benefits{DiscountPercentage: dec("10")},
			},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	lines := []cart.Line{line("i1", "100", 1, "")}
	res := e.Calculate(context.Background(), lines, CustomerRef{}, "")

	assert.True(t, res.DiscountAmount.IsZero())
	assert.True(t, res.FinalAmount.Equal(res.OriginalAmount))
	assert.Empty(t, res.Applied)
	assert.Empty(t, res.FreeItems)
}

func TestCalculate_CartPercentage(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:       "pct10",
				Name:     "10% off",
				Type:     TypeCartPercentage,
				Benefits: Benefits{DiscountPercentage: dec("10")},
			},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	lines := []cart.Line{
		line("i1", "100", 1, ""),
		line("i2", "100", 1, ""),
		line("i3", "50", 1, ""),
	}
	res := e.Calculate(context.Background(), lines, CustomerRef{}, "")

	assert.True(t, dec("250.00").Equal(res.OriginalAmount), "got %s", res.OriginalAmount)
	assert.True(t, dec("25.00").Equal(res.DiscountAmount), "got %s", res.DiscountAmount)
	assert.True(t, dec("225.00").Equal(res.FinalAmount), "got %s", res.FinalAmount)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "pct10", res.Applied[0].OfferID)
}

func TestCalculate_EmptyCart(t *testing.T) {
	repo := &mockOfferRepo{}
	e := newTestEngine(repo, &mockHistory{})

	res := e.Calculate(context.Background(), nil, CustomerRef{}, "")

	assert.True(t, res.OriginalAmount.IsZero())
	assert.True(t, res.FinalAmount.IsZero())
	assert.Empty(t, res.Applied)
	// An empty cart never hits the repository.
	assert.True(t, repo.gotNow.IsZero())
}

func TestCalculate_ResultSlicesSerializeAsEmptyArrays(t *testing.T) {
	repo := &mockOfferRepo{}
	e := newTestEngine(repo, &mockHistory{})

	res := e.Calculate(context.Background(),
		[]cart.Line{line("i1", "100", 1, "")}, CustomerRef{}, "")

	require.NotNil(t, res.Applied)
	require.NotNil(t, res.FreeItems)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"applied_offers":[]`)
	assert.Contains(t, string(raw), `"free_items":[]`)
}

func TestCalculate_RepositoryErrorDegradesToZeroDiscount(t *testing.T) {
	repo := &mockOfferRepo{fetchErr: errors.New("connection refused")}
	e := newTestEngine(repo, &mockHistory{})

	lines := []cart.Line{line("i1", "100", 2, "")}
	res := e.Calculate(context.Background(), lines, CustomerRef{}, "")

	assert.Empty(t, res.Applied)
	assert.True(t, res.DiscountAmount.IsZero())
	assert.True(t, dec("200.00").Equal(res.FinalAmount))
}

func TestCalculate_PromoCodeMatching(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:        "promo",
				Type:      TypePromoCode,
				PromoCode: "SAVE10",
				Benefits:  Benefits{DiscountPercentage: dec("10")},
			},
		},
	}
	e := newTestEngine(repo, &mockHistory{})
	lines := []cart.Line{line("i1", "100", 1, "")}

	// Without a code the promo offer is not a candidate.
	res := e.Calculate(context.Background(), lines, CustomerRef{}, "")
	assert.Empty(t, res.Applied)

	// Any casing of the code applies it.
	res = e.Calculate(context.Background(), lines, CustomerRef{}, "save10")
	require.Len(t, res.Applied, 1)
	assert.True(t, dec("10.00").Equal(res.DiscountAmount))
}

func TestCalculate_EmptyBenefitNotApplied(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:         "drinks20",
				Type:       TypeItemPercentage,
				Conditions: Conditions{Categories: []string{"drinks"}},
				Benefits:   Benefits{DiscountPercentage: dec("20")},
			},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	// No drinks in the cart: the offer is eligible but its benefit is empty.
	res := e.Calculate(context.Background(), []cart.Line{line("i1", "100", 1, "pizza")}, CustomerRef{}, "")

	assert.Empty(t, res.Applied)
	assert.True(t, res.DiscountAmount.IsZero())
}

func TestCalculate_WeekdayWindow(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:        "monday-special",
				Type:      TypeCartPercentage,
				ValidDays: []string{"monday"},
				Benefits:  Benefits{DiscountPercentage: dec("20")},
			},
		},
	}
	lines := []cart.Line{line("i1", "100", 1, "")}

	onMonday := newTestEngine(repo, &mockHistory{})
	res := onMonday.Calculate(context.Background(), lines, CustomerRef{}, "")
	require.Len(t, res.Applied, 1)

	tuesday := monday.Add(24 * time.Hour)
	onTuesday := newTestEngine(repo, &mockHistory{}, WithClock(func() time.Time { return tuesday }))
	res = onTuesday.Calculate(context.Background(), lines, CustomerRef{}, "")
	assert.Empty(t, res.Applied)
}

func TestCalculate_StackingInPriorityOrder(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{
				ID:       "bogo",
				Type:     TypeBuyGetFree,
				Priority: 1,
				Benefits: Benefits{BuyQuantity: 1, GetQuantity: 1, GetSameItem: true},
				Items:    []LineItem{{ItemID: "i1", Role: RoleMustBuy}},
			},
			{
				ID:       "pct10",
				Type:     TypeCartPercentage,
				Priority: 5,
				Benefits: Benefits{DiscountPercentage: dec("10")},
			},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	lines := []cart.Line{line("i1", "100", 2, "")}
	res := e.Calculate(context.Background(), lines, CustomerRef{}, "")

	require.Len(t, res.Applied, 2)
	// Higher priority first.
	assert.Equal(t, "pct10", res.Applied[0].OfferID)
	assert.Equal(t, "bogo", res.Applied[1].OfferID)
	assert.True(t, dec("20.00").Equal(res.DiscountAmount))
	require.Len(t, res.FreeItems, 1)
	assert.Equal(t, 2, res.FreeItems[0].Quantity)
}

func TestCalculate_EqualPriorityKeepsRepositoryOrder(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{ID: "first", Type: TypeCartPercentage, Priority: 3, Benefits: Benefits{DiscountPercentage: dec("5")}},
			{ID: "second", Type: TypeCartPercentage, Priority: 3, Benefits: Benefits{DiscountPercentage: dec("5")}},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	res := e.Calculate(context.Background(), []cart.Line{line("i1", "100", 1, "")}, CustomerRef{}, "")

	require.Len(t, res.Applied, 2)
	assert.Equal(t, "first", res.Applied[0].OfferID)
	assert.Equal(t, "second", res.Applied[1].OfferID)
}

func TestCalculate_HighestPriorityOnlyPolicy(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{ID: "small", Type: TypeCartPercentage, Priority: 1, Benefits: Benefits{DiscountPercentage: dec("5")}},
			{ID: "big", Type: TypeCartPercentage, Priority: 9, Benefits: Benefits{DiscountPercentage: dec("20")}},
		},
	}
	e := newTestEngine(repo, &mockHistory{}, WithStackingPolicy(HighestPriorityOnly))

	res := e.Calculate(context.Background(), []cart.Line{line("i1", "100", 1, "")}, CustomerRef{}, "")

	require.Len(t, res.Applied, 1)
	assert.Equal(t, "big", res.Applied[0].OfferID)
	assert.True(t, dec("20.00").Equal(res.DiscountAmount))
}

func TestCalculate_DiscountNeverExceedsOriginal(t *testing.T) {
	repo := &mockOfferRepo{
		defs: []Definition{
			{ID: "a", Type: TypeCartPercentage, Benefits: Benefits{DiscountPercentage: dec("80")}},
			{ID: "b", Type: TypeCartPercentage, Benefits: Benefits{DiscountPercentage: dec("80")}},
		},
	}
	e := newTestEngine(repo, &mockHistory{})

	res := e.Calculate(context.Background(), []cart.Line{line("i1", "100", 1, "")}, CustomerRef{}, "")

	assert.True(t, dec("100.00").Equal(res.DiscountAmount), "got %s", res.DiscountAmount)
	assert.True(t, res.FinalAmount.IsZero())
	assert.Len(t, res.Applied, 2)
}

func TestCalculate_CustomerSegmentLookup(t *testing.T) {
	segmentOffer := Definition{
		ID:         "welcome",
		Type:       TypeCustomerSegment,
		Conditions: Conditions{TargetSegment: SegmentFirstTime},
		Benefits:   Benefits{DiscountPercentage: dec("15")},
	}

	t.Run("first time customer gets the offer", func(t *testing.T) {
		repo := &mockOfferRepo{defs: []Definition{segmentOffer}}
		history := &mockHistory{count: 0}
		e := newTestEngine(repo, history)

		res := e.Calculate(context.Background(),
			[]cart.Line{line("i1", "100", 1, "")},
			CustomerRef{Email: "a@example.com"}, "")

		require.Len(t, res.Applied, 1)
		assert.Equal(t, 1, history.calls)
	})

	t.Run("returning customer does not", func(t *testing.T) {
		repo := &mockOfferRepo{defs: []Definition{segmentOffer}}
		e := newTestEngine(repo, &mockHistory{count: 3})

		res := e.Calculate(context.Background(),
			[]cart.Line{line("i1", "100", 1, "")},
			CustomerRef{Phone: "+911234567890"}, "")

		assert.Empty(t, res.Applied)
	})

	t.Run("history lookup skipped without segment candidates", func(t *testing.T) {
		repo := &mockOfferRepo{
			defs: []Definition{{ID: "pct", Type: TypeCartPercentage, Benefits: Benefits{DiscountPercentage: dec("10")}}},
		}
		history := &mockHistory{}
		e := newTestEngine(repo, history)

		e.Calculate(context.Background(),
			[]cart.Line{line("i1", "100", 1, "")},
			CustomerRef{Email: "a@example.com"}, "")

		assert.Equal(t, 0, history.calls)
	})

	t.Run("history error makes segment offers ineligible only", func(t *testing.T) {
		repo := &mockOfferRepo{
			defs: []Definition{
				segmentOffer,
				{ID: "pct", Type: TypeCartPercentage, Benefits: Benefits{DiscountPercentage: dec("10")}},
			},
		}
		e := newTestEngine(repo, &mockHistory{err: errors.New("orders table unavailable")})

		res := e.Calculate(context.Background(),
			[]cart.Line{line("i1", "100", 1, "")},
			CustomerRef{Email: "a@example.com"}, "")

		require.Len(t, res.Applied, 1)
		assert.Equal(t, "pct", res.Applied[0].OfferID)
	})
}

func TestRecordUsage(t *testing.T) {
	repo := &mockOfferRepo{}
	e := newTestEngine(repo, &mockHistory{})

	applied := []Applied{
		{OfferID: "a", Discount: dec("10.00")},
		{OfferID: "b", Discount: decimal.Zero},
	}
	err := e.RecordUsage(context.Background(), applied, "order-1", CustomerRef{Email: "a@example.com"})

	require.NoError(t, err)
	require.Len(t, repo.usageRecords, 2)
	assert.Equal(t, "order-1", repo.usageRecords[0].OrderID)
	assert.Equal(t, "a@example.com", repo.usageRecords[0].CustomerEmail)
	assert.Equal(t, []string{"a", "b"}, repo.incremented)
}

func TestRecordUsage_NothingApplied(t *testing.T) {
	repo := &mockOfferRepo{recordErr: errors.New("must not be called")}
	e := newTestEngine(repo, &mockHistory{})

	require.NoError(t, e.RecordUsage(context.Background(), nil, "order-1", CustomerRef{}))
}

func TestRecordUsage_PropagatesStorageErrors(t *testing.T) {
	repo := &mockOfferRepo{incrementErr: errors.New("deadlock")}
	e := newTestEngine(repo, &mockHistory{})

	err := e.RecordUsage(context.Background(), []Applied{{OfferID: "a"}}, "order-1", CustomerRef{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment usage count")
}
