// Package output renders command results for the console or as JSON.
package output

import (
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/comparison"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/selection"
	"github.com/dotcommander/provscore/internal/types"
)

// Formatter renders each kind of result the CLI produces.
type Formatter interface {
	Categories(cats []catalog.Category) error
	Criteria(categoryType string, criteria []types.WeightedCriterion, override *types.CategoryWeightOverride) error
	Providers(providers []types.Provider) error
	Evaluation(s evaluation.Summary) error
	Evaluations(summaries []evaluation.Summary) error
	Comparison(r comparison.Report) error
	Event(e types.SelectionEvent, ranking []selection.Standing) error
	Events(events []types.SelectionEvent) error
	Message(format string, args ...any) error
}
