package app

import (
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
)

// RejectionReason identifies which decision gate check failed.
type RejectionReason string

const (
	RejectNone       RejectionReason = ""
	RejectScore      RejectionReason = "score below minimum"
	RejectRisk       RejectionReason = "risk not acceptable"
	RejectConfidence RejectionReason = "confidence below minimum"
	RejectProfit     RejectionReason = "profit below threshold"
)

// Decision is the gate's verdict on a scored opportunity.
type Decision struct {
	Approved bool
	Reason   RejectionReason
}

// DecisionGate is the pure boolean accept/reject policy. Checks run in
// order and short-circuit on the first failure, so the reason always
// names the earliest failing check.
type DecisionGate struct {
	cfg config.GateConfig
}

// NewDecisionGate creates a DecisionGate.
func NewDecisionGate(cfg config.GateConfig) *DecisionGate {
	return &DecisionGate{cfg: cfg}
}

// Decide applies the four checks: score, risk acceptability, confidence,
// profit threshold. Approval flips the opportunity's Approved flag.
func (g *DecisionGate) Decide(opp *domain.Opportunity, score domain.Score, risk domain.RiskProfile, params domain.DynamicParameters) Decision {
	if float64(score.Overall) < g.cfg.MinScore {
		return Decision{Reason: RejectScore}
	}
	if !risk.Acceptable {
		return Decision{Reason: RejectRisk}
	}
	if score.Confidence < g.cfg.MinConfidence {
		return Decision{Reason: RejectConfidence}
	}
	if opp.EstimatedProfit.LessThan(params.MinProfit) {
		return Decision{Reason: RejectProfit}
	}

	opp.Approved = true
	return Decision{Approved: true}
}
