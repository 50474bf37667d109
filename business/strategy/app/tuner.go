package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/shopspring/decimal"
)

// ParameterTuner closes the feedback loop: it observes execution
// outcomes and periodically adjusts the dynamic parameters. Safety
// limits never change here; only strategy aggressiveness does.
type ParameterTuner struct {
	cfg    config.TunerConfig
	store  *ParamStore
	logger logger.LoggerInterface

	recent []executionDomain.OutcomeRecord // bounded at cfg.Window
	seen   int

	meter         metric.Meter
	retunesTotal  metric.Int64Counter
	riskTolerance metric.Float64Gauge
}

// NewParameterTuner creates a tuner bound to the shared parameter store.
func NewParameterTuner(cfg config.TunerConfig, store *ParamStore, log logger.LoggerInterface) (*ParameterTuner, error) {
	t := &ParameterTuner{
		cfg:    cfg,
		store:  store,
		logger: log,
		recent: make([]executionDomain.OutcomeRecord, 0, cfg.Window),
		meter:  otel.Meter(meterName),
	}
	if err := t.initMetrics(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ParameterTuner) initMetrics() error {
	var err error
	t.retunesTotal, err = t.meter.Int64Counter("poolarb_parameter_retunes_total",
		metric.WithDescription("Number of parameter retune passes"))
	if err != nil {
		return err
	}
	t.riskTolerance, err = t.meter.Float64Gauge("poolarb_risk_tolerance",
		metric.WithDescription("Current risk tolerance parameter"))
	return err
}

// Observe records one execution outcome. Every cfg.Cadence observations
// it retunes the shared parameters from the recent window. Not safe for
// concurrent use; outcomes arrive on the engine goroutine.
func (t *ParameterTuner) Observe(ctx context.Context, rec executionDomain.OutcomeRecord) {
	if len(t.recent) == t.cfg.Window {
		copy(t.recent, t.recent[1:])
		t.recent = t.recent[:t.cfg.Window-1]
	}
	t.recent = append(t.recent, rec)
	t.seen++

	if t.cfg.Cadence <= 0 || t.seen%t.cfg.Cadence != 0 {
		return
	}
	t.retune(ctx)
}

func (t *ParameterTuner) retune(ctx context.Context) {
	var successes int
	profitSum := decimal.Zero
	for _, r := range t.recent {
		if r.Success {
			successes++
		}
		profitSum = profitSum.Add(r.RealizedProfit)
	}
	rate := float64(successes) / float64(len(t.recent))
	meanProfit := profitSum.Div(decimal.NewFromInt(int64(len(t.recent))))

	params := t.store.Snapshot()
	before := params

	// Success rate steers risk tolerance.
	switch {
	case rate > t.cfg.SuccessRateHigh:
		params.RiskTolerance = min(params.RiskTolerance+t.cfg.RiskStep, t.cfg.RiskToleranceMax)
	case rate < t.cfg.SuccessRateLow:
		params.RiskTolerance = max(params.RiskTolerance-t.cfg.RiskStep, t.cfg.RiskToleranceMin)
	}

	// Mean realized profit steers the minimum-profit bar: consistently
	// beating it by a wide margin raises it, consistently missing lowers it.
	switch {
	case meanProfit.GreaterThan(params.MinProfit.Mul(decimal.NewFromFloat(t.cfg.ProfitHighMult))):
		params.MinProfit = params.MinProfit.Mul(decimal.NewFromFloat(t.cfg.ProfitRaiseFactor))
	case meanProfit.LessThan(params.MinProfit.Mul(decimal.NewFromFloat(t.cfg.ProfitLowMult))):
		params.MinProfit = params.MinProfit.Mul(decimal.NewFromFloat(t.cfg.ProfitLowerFactor))
	}

	if params.RiskTolerance == before.RiskTolerance && params.MinProfit.Equal(before.MinProfit) {
		return
	}

	t.store.Replace(params)
	t.retunesTotal.Add(ctx, 1)
	t.riskTolerance.Record(ctx, params.RiskTolerance)

	t.logger.Info(ctx, "parameters retuned",
		"success_rate", rate,
		"mean_profit", meanProfit.String(),
		"window", len(t.recent),
		"risk_tolerance", params.RiskTolerance,
		"risk_tolerance_prev", before.RiskTolerance,
		"min_profit", params.MinProfit.String(),
		"min_profit_prev", before.MinProfit.String(),
	)
}

// Window returns a copy of the outcomes currently informing retunes.
func (t *ParameterTuner) Window() []executionDomain.OutcomeRecord {
	out := make([]executionDomain.OutcomeRecord, len(t.recent))
	copy(out, t.recent)
	return out
}
