package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/dotcommander/provscore/internal/types"
)

// Tolerances for weight sums.
const (
	PercentTolerance  = 0.01
	FractionTolerance = 0.001
)

// SumPercent returns the total weight of selection criteria.
func SumPercent(criteria []types.Criterion) float64 {
	var sum float64
	for _, c := range criteria {
		sum += c.Weight
	}
	return sum
}

// ValidatePercentWeights checks that every weight is within 0..100 and that
// the set sums to 100.
func ValidatePercentWeights(scope string, weights map[string]float64) error {
	if len(weights) == 0 {
		return &types.ConfigurationError{Scope: scope, Message: "no weights given"}
	}

	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum float64
	for _, id := range ids {
		w := weights[id]
		if w < 0 || w > 100 || math.IsNaN(w) {
			return &types.ConfigurationError{Scope: scope, Message: fmt.Sprintf("weight for %s must be between 0 and 100, got %g", id, w)}
		}
		sum += w
	}

	if math.Abs(sum-100) > PercentTolerance {
		return &types.ConfigurationError{Scope: scope, Message: fmt.Sprintf("weights sum to %.2f, must sum to 100", sum)}
	}
	return nil
}

// ValidateCriteria checks a selection criteria list: unique ids, weights in
// range and a total of 100.
func ValidateCriteria(scope string, criteria []types.Criterion) error {
	weights := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		if c.ID == "" {
			return &types.ConfigurationError{Scope: scope, Message: "criterion without id"}
		}
		if _, dup := weights[c.ID]; dup {
			return &types.ConfigurationError{Scope: scope, Message: "duplicate criterion " + c.ID}
		}
		weights[c.ID] = c.Weight
	}
	return ValidatePercentWeights(scope, weights)
}

// ValidateDefinitions checks that both weight sets of a catalog category
// sum to 1.
func ValidateDefinitions(scope string, defs []types.CriterionDefinition) error {
	if len(defs) == 0 {
		return &types.ConfigurationError{Scope: scope, Message: "category has no criteria"}
	}

	var normal, critical float64
	for _, d := range defs {
		if d.WeightNormal < 0 || d.WeightNormal > 1 || d.WeightCritical < 0 || d.WeightCritical > 1 {
			return &types.ConfigurationError{Scope: scope, Message: "weights for " + d.ID + " must be fractions between 0 and 1"}
		}
		normal += d.WeightNormal
		critical += d.WeightCritical
	}

	if math.Abs(normal-1) > FractionTolerance {
		return &types.ConfigurationError{Scope: scope, Message: fmt.Sprintf("normal weights sum to %.4f, must sum to 1", normal)}
	}
	if math.Abs(critical-1) > FractionTolerance {
		return &types.ConfigurationError{Scope: scope, Message: fmt.Sprintf("critical weights sum to %.4f, must sum to 1", critical)}
	}
	return nil
}
