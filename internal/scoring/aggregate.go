package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/dotcommander/provscore/internal/types"
)

// MinScore and MaxScore bound a single criterion score.
const (
	MinScore = 1
	MaxScore = 5
)

// totalPlaces is the number of decimals a stored total keeps.
const totalPlaces = 2

var (
	hundred       = decimal.NewFromInt(100)
	percentFactor = decimal.NewFromInt(20)
)

// ComputeTotalScore returns Σ score·weight over the active criteria, rounded
// to two decimals. A criterion without a score counts as 0.
func ComputeTotalScore(scores map[string]int, criteria []types.WeightedCriterion) decimal.Decimal {
	total := decimal.Zero
	for _, c := range Breakdown(scores, criteria) {
		total = total.Add(c.Points)
	}
	return total.Round(totalPlaces)
}

// Breakdown returns the per-criterion contributions in criteria order.
func Breakdown(scores map[string]int, criteria []types.WeightedCriterion) []Contribution {
	out := make([]Contribution, 0, len(criteria))
	for _, c := range criteria {
		score, scored := scores[c.ID]
		if !scored {
			score = 0
		}
		out = append(out, Contribution{
			ID:     c.ID,
			Label:  c.Label,
			Score:  score,
			Weight: c.Weight,
			Points: decimal.NewFromInt(int64(score)).Mul(decimal.NewFromFloat(c.Weight)),
			Scored: scored,
		})
	}
	return out
}

// PercentWeights converts selection criteria (percentage points) into
// fractional weights.
func PercentWeights(criteria []types.Criterion) []types.WeightedCriterion {
	out := make([]types.WeightedCriterion, 0, len(criteria))
	for _, c := range criteria {
		w, _ := decimal.NewFromFloat(c.Weight).Div(hundred).Float64()
		out = append(out, types.WeightedCriterion{ID: c.ID, Label: c.Label, Weight: w})
	}
	return out
}

// ComputeCompetitorScore applies the same weighted sum to a competitor whose
// criteria weights are percentage points.
func ComputeCompetitorScore(competitor types.Competitor, criteria []types.Criterion) decimal.Decimal {
	return ComputeTotalScore(competitor.Scores, PercentWeights(criteria))
}

// Percent maps a 0..5 total to 0..100, rounded to the nearest integer.
func Percent(total decimal.Decimal) int {
	return int(total.Mul(percentFactor).Round(0).IntPart())
}

// ValidScore reports whether s is within the 1..5 scale.
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}
