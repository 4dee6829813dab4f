package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
	"github.com/oakmont/wealthsim/internal/service"
)

// Purchase pairs a sized amount with the match that produced it.
type Purchase struct {
	Product *model.Product
	Amount  float64
	Match   model.MatchResult
}

// Purchase channels and their share of traffic.
var purchaseChannels = []struct {
	name   string
	weight float64
}{
	{"mobile_app", 0.40},
	{"online_banking", 0.30},
	{"counter", 0.15},
	{"phone_banking", 0.10},
	{"third_party", 0.05},
}

// LifecycleCoordinator drives the engine over a customer population and a
// date range: it creates positions from matches and advances the redemption
// process day by day. One coordinator owns one run.
type LifecycleCoordinator struct {
	store   service.Storage
	sink    service.EventSink
	risk    *RiskCapacityModel
	matcher *ProductMatcher
	sizer   *AmountSizer
	sim     *RedemptionSimulator
	cfg     config.Config
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewLifecycleCoordinator wires the engine components around one seeded RNG.
// The sink may be nil when no audit trail is wanted.
func NewLifecycleCoordinator(cfg config.Config, store service.Storage, sink service.EventSink, logger *slog.Logger) *LifecycleCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	rng := common.NewRand(cfg.System.RandomSeed)
	risk := NewRiskCapacityModel(cfg, logger)
	return &LifecycleCoordinator{
		store:   store,
		sink:    sink,
		risk:    risk,
		matcher: NewProductMatcher(cfg, risk, store, rng, logger),
		sizer:   NewAmountSizer(rng, logger),
		sim:     NewRedemptionSimulator(cfg.Redemption, logger),
		cfg:     cfg,
		rng:     rng,
		logger:  logger,
	}
}

// MatchAndSize ranks the candidates for a customer and sizes a purchase for
// each returned match.
func (lc *LifecycleCoordinator) MatchAndSize(ctx context.Context, customer *model.Customer, candidates []model.Product) ([]Purchase, error) {
	matches, err := lc.matcher.FindMatches(ctx, customer, candidates, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to match customer %s: %w", customer.ID, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	capacity := lc.risk.Capacity(customer)
	history, err := lc.store.GetCustomerHistory(ctx, customer.ID, lc.cfg.System.HistoryLookback)
	if err != nil {
		lc.logger.Warn("history lookup failed, sizing without history",
			"customer_id", customer.ID, "error", err)
		history = nil
	}

	purchases := make([]Purchase, 0, len(matches))
	for _, match := range matches {
		purchases = append(purchases, Purchase{
			Product: match.Product,
			Amount:  lc.sizer.SizePurchase(customer, match.Product, capacity, history),
			Match:   match,
		})
	}
	return purchases, nil
}

// GeneratePurchases creates historical positions for every stored customer
// across [from, to]. Weighted sampling over match scores decides which
// matches become purchases. Per-customer faults are logged and skipped.
func (lc *LifecycleCoordinator) GeneratePurchases(ctx context.Context, from, to time.Time) (service.BatchStats, error) {
	var stats service.BatchStats

	customers, err := lc.store.GetAllCustomers(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load customers: %w", err)
	}
	if len(customers) == 0 {
		return stats, common.ErrNoCustomers
	}
	catalog, err := lc.store.GetProductsAvailable(ctx, from, to)
	if err != nil {
		return stats, fmt.Errorf("failed to load products: %w", err)
	}
	if len(catalog) == 0 {
		return stats, common.ErrNoProducts
	}

	batch := make([]model.InvestmentPosition, 0, lc.cfg.System.BatchSize)
	for i := range customers {
		customer := &customers[i]
		stats.Processed++

		positions, err := lc.purchasesFor(ctx, customer, catalog, from, to)
		if err != nil {
			lc.logger.Warn("skipping customer after purchase fault",
				"customer_id", customer.ID,
				"error", common.NewComputationError(customer.ID, err))
			stats.Errored++
			continue
		}
		if len(positions) == 0 {
			stats.Skipped++
			continue
		}

		batch = append(batch, positions...)
		stats.Created += len(positions)
		if len(batch) >= lc.cfg.System.BatchSize {
			if err := lc.flushPositions(ctx, batch); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := lc.flushPositions(ctx, batch); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// purchasesFor builds this customer's purchases for the range: a phase-
// dependent purchase count, weighted match sampling without replacement,
// and a business-hours purchase timestamp on a weighted-drawn day.
func (lc *LifecycleCoordinator) purchasesFor(ctx context.Context, customer *model.Customer, catalog []model.Product, from, to time.Time) ([]model.InvestmentPosition, error) {
	history, err := lc.store.GetCustomerHistory(ctx, customer.ID, lc.cfg.System.HistoryLookback)
	if err != nil {
		lc.logger.Warn("history lookup failed, generating without history",
			"customer_id", customer.ID, "error", err)
		history = nil
	}

	count := lc.purchaseCount(effectivePhase(customer, history))
	if count == 0 {
		return nil, nil
	}
	capacity := lc.risk.Capacity(customer)

	var positions []model.InvestmentPosition
	var exclude []string
	for n := 0; n < count; n++ {
		day := lc.randomDay(from, to)

		candidates := make([]model.Product, 0, len(catalog))
		for _, p := range catalog {
			if p.AvailableOn(day) {
				candidates = append(candidates, p)
			}
		}
		matches, err := lc.matcher.FindMatches(ctx, customer, candidates, exclude, 0)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			break
		}

		weights := make([]float64, len(matches))
		for i, m := range matches {
			weights[i] = m.Score
		}
		match := matches[common.WeightedIndex(lc.rng, weights)]
		exclude = append(exclude, match.Product.ID)

		amount := lc.sizer.SizePurchase(customer, match.Product, capacity, history)

		purchasedAt := lc.sim.redeemTimestamp(lc.rng, day, customer)
		positions = append(positions, model.InvestmentPosition{
			ID:             lc.newID(),
			CustomerID:     customer.ID,
			ProductID:      match.Product.ID,
			AccountID:      "ACC-" + lc.newID()[:8],
			Channel:        lc.pickChannel(customer),
			PurchaseAmount: amount,
			HoldAmount:     amount,
			ExpectedReturn: ExpectedReturn(amount, match.Product.ExpectedYield, match.Product.InvestmentPeriodMonths),
			Status:         model.StatusHeld,
			PurchaseTime:   purchasedAt,
			MaturityTime:   purchasedAt.AddDate(0, match.Product.InvestmentPeriodMonths, 0),
		})
	}
	return positions, nil
}

func (lc *LifecycleCoordinator) flushPositions(ctx context.Context, batch []model.InvestmentPosition) error {
	if err := lc.store.SavePositions(ctx, batch); err != nil {
		return fmt.Errorf("failed to save position batch: %w", err)
	}
	if lc.sink != nil {
		for _, pos := range batch {
			lc.sink.PositionOpened(ctx, pos)
		}
	}
	return nil
}

// effectivePhase rechecks the stored wealth phase against actual position
// history: once a customer has recorded positions, behavior wins over the
// profile snapshot.
func effectivePhase(customer *model.Customer, history []model.PositionSummary) model.WealthPhase {
	if len(history) == 0 {
		return customer.WealthPhase
	}
	if customer.DaysSinceActivity >= 90 {
		return model.PhaseRecall
	}
	if len(history) == 1 {
		return model.PhaseFirstPurchase
	}
	return model.PhaseEstablished
}

// purchaseCount draws how many purchases a customer makes in the range,
// shaped by their wealth phase.
func (lc *LifecycleCoordinator) purchaseCount(phase model.WealthPhase) int {
	switch phase {
	case model.PhaseLost:
		return 0
	case model.PhaseRegistered:
		if lc.rng.Float64() < 0.3 {
			return 1
		}
		return 0
	case model.PhaseFirstPurchase:
		return 1
	case model.PhaseRecall:
		if lc.rng.Float64() < 0.5 {
			return 1
		}
		return 0
	default: // established
		return 1 + common.WeightedIndex(lc.rng, []float64{0.5, 0.35, 0.15})
	}
}

// randomDay draws a purchase date from the range, favoring workdays and the
// month's opening and closing days when salaries and maturities land.
func (lc *LifecycleCoordinator) randomDay(from, to time.Time) time.Time {
	days := int(to.Sub(from).Hours()/24) + 1
	if days <= 1 {
		return from
	}
	weights := make([]float64, days)
	for i := range weights {
		day := from.AddDate(0, 0, i)
		w := 1.0
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			w = 0.3
		}
		switch {
		case day.Day() <= 3:
			w *= 1.3
		case day.Day() >= 26:
			w *= 1.2
		}
		weights[i] = w
	}
	return from.AddDate(0, 0, common.WeightedIndex(lc.rng, weights))
}

// newID draws a UUID from the run's seeded RNG so position identifiers, and
// with them the per-position sub-seeds, reproduce across identical runs.
func (lc *LifecycleCoordinator) newID() string {
	return uuid.Must(uuid.NewRandomFromReader(lc.rng)).String()
}

// pickChannel draws the purchase channel, tilting corporates and VIPs toward
// assisted channels and away from the mobile app.
func (lc *LifecycleCoordinator) pickChannel(customer *model.Customer) string {
	weights := make([]float64, len(purchaseChannels))
	for i, ch := range purchaseChannels {
		w := ch.weight
		switch ch.name {
		case "counter", "phone_banking":
			if customer.Type == model.CustomerCorporate || customer.IsVIP {
				w *= 2
			}
		case "mobile_app":
			if customer.Type == model.CustomerCorporate {
				w *= 0.5
			}
		}
		weights[i] = w
	}
	return purchaseChannels[common.WeightedIndex(lc.rng, weights)].name
}

// AdvanceDay evaluates every open position for one simulated day, applies
// the resulting transitions atomically and notifies the sink. Positions are
// evaluated in parallel shards; each position draws from its own sub-seeded
// RNG so the outcome is independent of scheduling order. A position whose
// customer or product cannot be resolved is skipped, never fatal.
func (lc *LifecycleCoordinator) AdvanceDay(ctx context.Context, day time.Time) (service.BatchStats, error) {
	var stats service.BatchStats

	positions, err := lc.store.LoadOpenPositions(ctx, service.PositionFilter{})
	if err != nil {
		return stats, fmt.Errorf("failed to load open positions: %w", err)
	}
	if len(positions) == 0 {
		return stats, nil
	}

	customers, products, err := lc.prefetch(ctx, positions)
	if err != nil {
		return stats, err
	}

	workers := runtime.NumCPU()
	if workers > len(positions) {
		workers = len(positions)
	}
	dayKey := day.Format("2006-01-02")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	shardSize := (len(positions) + workers - 1) / workers
	shards := make([][]model.PositionDelta, (len(positions)+shardSize-1)/shardSize)
	skipped := make([]int, len(shards))

	for s := 0; s < len(shards); s++ {
		start := s * shardSize
		end := start + shardSize
		if end > len(positions) {
			end = len(positions)
		}
		shard := positions[start:end]
		s := s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var out []model.PositionDelta
			for i := range shard {
				pos := &shard[i]
				customer, okC := customers[pos.CustomerID]
				product, okP := products[pos.ProductID]
				if !okC || !okP {
					lc.logger.Warn("skipping position with unresolved references",
						"position_id", pos.ID,
						"customer_id", pos.CustomerID,
						"product_id", pos.ProductID)
					skipped[s]++
					continue
				}
				rng := common.NewRand(common.SubSeed(lc.cfg.System.RandomSeed, pos.ID+"@"+dayKey))
				if delta := lc.sim.EvaluateDay(rng, pos, customer, product, day); delta != nil {
					out = append(out, *delta)
				}
			}
			// Each goroutine owns its own slot; Wait orders the reads.
			shards[s] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("failed to evaluate positions: %w", err)
	}

	var deltas []model.PositionDelta
	for s, shard := range shards {
		deltas = append(deltas, shard...)
		stats.Skipped += skipped[s]
	}
	stats.Processed = len(positions)

	if len(deltas) == 0 {
		return stats, nil
	}

	applied, err := lc.store.ApplyTransitions(ctx, deltas)
	if err != nil {
		return stats, fmt.Errorf("failed to apply transitions: %w", err)
	}
	if applied != len(deltas) {
		lc.logger.Warn("some transitions did not apply",
			"expected", len(deltas), "applied", applied)
	}

	for _, delta := range deltas {
		switch {
		case delta.Maturity:
			stats.Matured++
		case delta.NewStatus == model.StatusFullyRedeemed:
			stats.Full++
		default:
			stats.Partial++
		}
		if lc.sink != nil {
			lc.sink.PositionChanged(ctx, delta)
		}
	}
	return stats, nil
}

// ForceMaturity closes every open position at or past its maturity date,
// independent of the probabilistic process. Used at the end of a historical
// run so no stale open positions survive the simulated range.
func (lc *LifecycleCoordinator) ForceMaturity(ctx context.Context, day time.Time) (service.BatchStats, error) {
	var stats service.BatchStats

	positions, err := lc.store.LoadOpenPositions(ctx, service.PositionFilter{})
	if err != nil {
		return stats, fmt.Errorf("failed to load open positions: %w", err)
	}

	var deltas []model.PositionDelta
	for i := range positions {
		stats.Processed++
		if delta := lc.sim.ForceMaturity(&positions[i], day); delta != nil {
			deltas = append(deltas, *delta)
		}
	}
	if len(deltas) == 0 {
		return stats, nil
	}

	if _, err := lc.store.ApplyTransitions(ctx, deltas); err != nil {
		return stats, fmt.Errorf("failed to apply maturity transitions: %w", err)
	}
	stats.Matured = len(deltas)
	if lc.sink != nil {
		for _, delta := range deltas {
			lc.sink.PositionChanged(ctx, delta)
		}
	}
	return stats, nil
}

// ValidateRun rechecks every open position's invariants after a batch,
// logging each violation. Returns the number of invalid positions.
func (lc *LifecycleCoordinator) ValidateRun(ctx context.Context) (int, error) {
	positions, err := lc.store.LoadOpenPositions(ctx, service.PositionFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load positions for validation: %w", err)
	}
	invalid := 0
	for i := range positions {
		if err := positions[i].Validate(); err != nil {
			lc.logger.Warn("position failed validation",
				"position_id", positions[i].ID, "error", err)
			invalid++
		}
	}
	return invalid, nil
}

// prefetch loads the customer and product snapshots the day loop reads, so
// no lookups happen inside the per-position inner loop.
func (lc *LifecycleCoordinator) prefetch(ctx context.Context, positions []model.InvestmentPosition) (map[string]*model.Customer, map[string]*model.Product, error) {
	customerIDs := make(map[string]bool)
	productIDs := make(map[string]bool)
	for i := range positions {
		customerIDs[positions[i].CustomerID] = true
		productIDs[positions[i].ProductID] = true
	}

	ids := make([]string, 0, len(customerIDs))
	for id := range customerIDs {
		ids = append(ids, id)
	}
	customerRows, err := lc.store.GetCustomers(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prefetch customers: %w", err)
	}
	customers := make(map[string]*model.Customer, len(customerRows))
	for i := range customerRows {
		customers[customerRows[i].ID] = &customerRows[i]
	}

	products := make(map[string]*model.Product, len(productIDs))
	for id := range productIDs {
		product, err := lc.store.GetProduct(ctx, id)
		if err != nil {
			lc.logger.Warn("failed to prefetch product", "product_id", id, "error", err)
			continue
		}
		products[id] = product
	}
	return customers, products, nil
}
