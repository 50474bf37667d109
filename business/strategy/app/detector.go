package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

const meterName = "github.com/crosspool/poolarb/business/strategy/app"

type detectorMetrics struct {
	detected metric.Int64Counter
	skipped  metric.Int64Counter
	open     metric.Int64Gauge
}

// Detector scans pool snapshot pairs for price discrepancies and keeps the
// set of open (unexpired) opportunities. Runs every tick, so the TTL purge
// scan must stay O(open opportunities).
type Detector struct {
	cfg    config.StrategyConfig
	logger logger.LoggerInterface
	now    func() time.Time

	mu   sync.Mutex
	open map[string]*domain.Opportunity

	metrics *detectorMetrics
}

// NewDetector creates a Detector.
func NewDetector(cfg config.StrategyConfig, log logger.LoggerInterface) (*Detector, error) {
	d := &Detector{
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		open:   make(map[string]*domain.Opportunity),
	}
	if err := d.initMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &detectorMetrics{}

	d.metrics.detected, err = meter.Int64Counter(
		"opportunities_detected_total",
		metric.WithDescription("Total opportunities emitted by the detector"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return err
	}

	d.metrics.skipped, err = meter.Int64Counter(
		"candidates_skipped_total",
		metric.WithDescription("Pool pairs skipped below the coarse spread floor or unprofitable"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return err
	}

	d.metrics.open, err = meter.Int64Gauge(
		"opportunities_open",
		metric.WithDescription("Currently open, unexpired opportunities"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Detect evaluates every unordered snapshot pair sharing an asset pair and
// returns fresh opportunities above the coarse floor. Expired opportunities
// are purged from the open set on every call.
func (d *Detector) Detect(ctx context.Context, snaps []marketDomain.PoolSnapshot, params domain.DynamicParameters) []*domain.Opportunity {
	now := d.now()
	d.purgeExpired(now)

	two := decimal.NewFromInt(2)
	coarseFloor := params.MinSpreadPct.Div(two)

	var found []*domain.Opportunity
	for i := 0; i < len(snaps); i++ {
		for j := i + 1; j < len(snaps); j++ {
			if !snaps[i].SamePair(snaps[j]) {
				continue
			}

			opp, ok := d.evaluatePair(snaps[i], snaps[j], coarseFloor, now)
			if !ok {
				d.metrics.skipped.Add(ctx, 1)
				continue
			}

			d.mu.Lock()
			d.open[opp.ID] = opp
			d.mu.Unlock()

			d.metrics.detected.Add(ctx, 1)
			found = append(found, opp)
		}
	}

	d.mu.Lock()
	openCount := len(d.open)
	d.mu.Unlock()
	d.metrics.open.Record(ctx, int64(openCount))

	return found
}

// evaluatePair applies the coarse pre-filter: spread at or above half the
// configured minimum, and a non-negative naive profit at the reference
// trade size. The real accept/reject decision happens downstream.
func (d *Detector) evaluatePair(x, y marketDomain.PoolSnapshot, coarseFloor decimal.Decimal, now time.Time) (*domain.Opportunity, bool) {
	priceX := x.CanonicalPrice()
	priceY := y.CanonicalPrice()
	if priceX.IsZero() || priceY.IsZero() {
		return nil, false
	}

	spread := priceX.Sub(priceY).Abs()
	minPrice := priceX
	if priceY.LessThan(priceX) {
		minPrice = priceY
	}
	spreadPct := spread.Div(minPrice)

	if spreadPct.LessThan(coarseFloor) {
		return nil, false
	}

	tradeAmount := d.cfg.DefaultTradeAmountDecimal()
	gross := tradeAmount.Mul(spread)
	flashFee := tradeAmount.Mul(d.cfg.FlashFeeRateDecimal())
	estProfit := gross.Sub(d.cfg.GasEstimateDecimal()).Sub(flashFee)
	if estProfit.IsNegative() {
		return nil, false
	}

	buy, sell := x, y
	if priceY.LessThan(priceX) {
		buy, sell = y, x
	}

	return &domain.Opportunity{
		ID:              domain.OpportunityID(x.PoolID, y.PoolID, now),
		BuyPool:         buy,
		SellPool:        sell,
		PairKey:         x.PairKey(),
		Spread:          spread,
		SpreadPct:       spreadPct,
		EstimatedProfit: estProfit,
		GasEstimate:     d.cfg.GasEstimateDecimal(),
		TradeAmount:     tradeAmount,
		CreatedAt:       now,
	}, true
}

func (d *Detector) purgeExpired(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, opp := range d.open {
		if opp.Expired(now, d.cfg.OpportunityTTL) {
			delete(d.open, id)
		}
	}
}

// Open returns the current unexpired opportunity set, for the dashboard.
func (d *Detector) Open() []*domain.Opportunity {
	now := d.now()
	d.purgeExpired(now)

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.Opportunity, 0, len(d.open))
	for _, opp := range d.open {
		out = append(out, opp)
	}
	return out
}
