package scoring

import (
	"github.com/shopspring/decimal"
)

var (
	// actionPlanThreshold is the 70% remediation gate on the 0..5 scale.
	actionPlanThreshold = decimal.RequireFromString("3.5")
	// criterionCommitmentBar is the 85% per-criterion bar.
	criterionCommitmentBar = decimal.RequireFromString("4.25")

	tierHigh   = decimal.NewFromInt(85)
	tierMiddle = decimal.NewFromInt(70)
	tierLow    = decimal.NewFromInt(60)
)

// RequiresActionPlan is the recurring-evaluation remediation gate: a total
// below 3.5 (70%) requires an improvement commitment.
func RequiresActionPlan(total decimal.Decimal) bool {
	return total.LessThan(actionPlanThreshold)
}

// CommitmentRequired reports whether a single criterion score falls below
// the 85% bar and therefore needs its own commitment text.
func CommitmentRequired(score int) bool {
	return decimal.NewFromInt(int64(score)).LessThan(criterionCommitmentBar)
}

// GetDecisionStatus returns the selection-event recommendation tier.
// It does not gate remediation.
func GetDecisionStatus(total decimal.Decimal) DecisionStatus {
	pct := total.Mul(percentFactor)
	switch {
	case pct.GreaterThanOrEqual(tierHigh):
		return DecisionAprobado
	case pct.GreaterThanOrEqual(tierMiddle):
		return DecisionAprobadoCondicionado
	case pct.GreaterThanOrEqual(tierLow):
		return DecisionRequiereAnalisis
	default:
		return DecisionNoAprobado
	}
}

// PerformanceStatus returns the dashboard band for a recurring evaluation.
func PerformanceStatus(total decimal.Decimal) PerformanceLabel {
	pct := total.Mul(percentFactor)
	switch {
	case pct.GreaterThanOrEqual(tierHigh):
		return PerformanceSobresaliente
	case pct.GreaterThanOrEqual(tierMiddle):
		return PerformanceSatisfactorio
	case pct.GreaterThanOrEqual(tierLow):
		return PerformanceObservacion
	default:
		return PerformanceCritico
	}
}

// Classify combines the dashboard band with the remediation gate. The band
// is informational; only RequiresActionPlan decides remediation.
func Classify(total decimal.Decimal) Classification {
	return Classification{
		Label:               PerformanceStatus(total),
		Percent:             Percent(total),
		RequiresRemediation: RequiresActionPlan(total),
	}
}
