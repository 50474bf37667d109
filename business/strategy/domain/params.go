package domain

import "github.com/shopspring/decimal"

// DynamicParameters is the tunable decision parameter set. It is treated
// as a value: the tuner builds a modified copy and replaces the whole set
// atomically, so readers never observe a partial update.
type DynamicParameters struct {
	MinSpreadPct    decimal.Decimal
	MinProfit       decimal.Decimal
	MaxSlippagePct  decimal.Decimal
	TargetTradeSize decimal.Decimal
	RiskTolerance   float64 // in [0,1]
}

// DefaultParameters returns the startup parameter set.
func DefaultParameters() DynamicParameters {
	return DynamicParameters{
		MinSpreadPct:    decimal.NewFromFloat(0.005),
		MinProfit:       decimal.NewFromInt(1),
		MaxSlippagePct:  decimal.NewFromFloat(0.02),
		TargetTradeSize: decimal.NewFromInt(1000),
		RiskTolerance:   0.5,
	}
}
