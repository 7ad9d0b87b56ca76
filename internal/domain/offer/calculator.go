package offer

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/platewise/dineflow/internal/domain/cart"
)

// StackingPolicy decides which of the eligible offers (already sorted by
// descending priority, ties in repository order) actually apply. The default
// stacks all of them; swapping the policy changes exclusivity without
// touching the rest of the engine.
type StackingPolicy func(eligible []*Definition) []*Definition

// StackAll applies every eligible offer. This is the default.
func StackAll(eligible []*Definition) []*Definition { return eligible }

// HighestPriorityOnly applies only the single highest-priority eligible offer.
func HighestPriorityOnly(eligible []*Definition) []*Definition {
	if len(eligible) > 1 {
		return eligible[:1]
	}
	return eligible
}

// Engine runs offer calculations over cart snapshots. It holds no state
// between calls beyond its injected collaborators; all offer and history
// data is fetched fresh per call.
type Engine struct {
	offers  Repository
	history OrderHistory
	policy  StackingPolicy
	now     func() time.Time
	lg      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by tests and anywhere
// a calculation must be reproduced for a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStackingPolicy overrides the default stack-everything policy.
func WithStackingPolicy(p StackingPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(offers Repository, history OrderHistory, lg *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		offers:  offers,
		history: history,
		policy:  StackAll,
		now:     time.Now,
		lg:      lg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate evaluates the cart against the offer catalog and returns the
// aggregated result. It never fails: any fault during evaluation degrades to
// a zero-discount result so the caller is never blocked from checking out.
func (e *Engine) Calculate(ctx context.Context, lines []cart.Line, customer CustomerRef, promoCode string) (result Result) {
	original := cart.Subtotal(lines).Round(2)
	result = zeroDiscountResult(original)

	defer func() {
		if rec := recover(); rec != nil {
			e.lg.Error("offer calculation panicked, applying no offers", zap.Any("panic", rec))
			result = zeroDiscountResult(original)
		}
	}()

	if len(lines) == 0 {
		return result
	}

	candidates, err := e.offers.FetchCandidates(ctx, e.now(), promoCode)
	if err != nil {
		e.lg.Warn("offer fetch failed, applying no offers", zap.Error(err))
		return result
	}

	state := e.resolveCustomer(ctx, candidates, customer)

	eligible := make([]*Definition, 0, len(candidates))
	for i := range candidates {
		if Eligible(&candidates[i], lines, state) {
			eligible = append(eligible, &candidates[i])
		}
	}

	// Stable sort keeps repository order for equal priorities.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority > eligible[j].Priority
	})
	eligible = e.policy(eligible)

	for _, d := range eligible {
		applied := ApplyBenefit(d, lines)
		// An eligible offer whose benefit comes out empty (a scoped discount
		// with no matching lines, a free-item grant with nothing to grant)
		// is not an applied offer.
		if applied.Discount.IsZero() && len(applied.FreeItems) == 0 {
			continue
		}
		result.Applied = append(result.Applied, applied)
		result.DiscountAmount = result.DiscountAmount.Add(applied.Discount)
		result.FreeItems = append(result.FreeItems, applied.FreeItems...)
	}

	// The aggregate discount never exceeds the cart and the final amount
	// never goes negative, regardless of how offers stack.
	if result.DiscountAmount.GreaterThan(original) {
		result.DiscountAmount = original
	}
	result.DiscountAmount = result.DiscountAmount.Round(2)
	result.FinalAmount = floorAtZero(original.Sub(result.DiscountAmount)).Round(2)

	return result
}

// resolveCustomer looks up the prior-order count once, and only when a
// customer_segment candidate actually needs it. A failed lookup degrades to
// an unknown customer, which makes segment offers ineligible.
func (e *Engine) resolveCustomer(ctx context.Context, candidates []Definition, customer CustomerRef) CustomerState {
	needed := false
	for i := range candidates {
		if candidates[i].Type == TypeCustomerSegment {
			needed = true
			break
		}
	}
	if !needed || !customer.Known() {
		return CustomerState{Known: customer.Known()}
	}

	count, err := e.history.CountPriorOrders(ctx, customer)
	if err != nil {
		e.lg.Warn("prior-order lookup failed, treating customer as unknown", zap.Error(err))
		return CustomerState{}
	}
	return CustomerState{Known: true, PriorOrders: count}
}

// RecordUsage writes one usage record per applied offer and increments each
// offer's usage counter. Invoke it only after the order has been persisted;
// the increment is atomic at the storage layer, so concurrent orders using
// the same offer do not lose updates.
func (e *Engine) RecordUsage(ctx context.Context, applied []Applied, orderID string, customer CustomerRef) error {
	if len(applied) == 0 {
		return nil
	}

	records := make([]UsageRecord, len(applied))
	usedAt := e.now()
	for i, a := range applied {
		records[i] = UsageRecord{
			OfferID:        a.OfferID,
			OrderID:        orderID,
			CustomerEmail:  customer.Email,
			CustomerPhone:  customer.Phone,
			DiscountAmount: a.Discount,
			UsedAt:         usedAt,
		}
	}

	if err := e.offers.RecordUsage(ctx, records); err != nil {
		return errors.Wrap(err, "record offer usage")
	}
	for _, a := range applied {
		if err := e.offers.IncrementUsageCount(ctx, a.OfferID); err != nil {
			return errors.Wrapf(err, "increment usage count for offer %s", a.OfferID)
		}
	}
	return nil
}

// zeroDiscountResult is the no-offers outcome. Applied and FreeItems are
// non-nil so the result always serializes with [] rather than null.
func zeroDiscountResult(original decimal.Decimal) Result {
	return Result{
		OriginalAmount: original,
		DiscountAmount: decimal.Zero,
		FinalAmount:    original,
		Applied:        []Applied{},
		FreeItems:      []FreeItem{},
	}
}
