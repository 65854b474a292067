package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/comparison"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/selection"
	"github.com/dotcommander/provscore/internal/types"
)

// JSONFormatter writes each result as one JSON document.
type JSONFormatter struct {
	w      io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSONFormatter
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{w: w, indent: indent}
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONCriteria is the weights view of a category type.
type JSONCriteria struct {
	CategoryType string                        `json:"categoryType"`
	Criteria     []types.WeightedCriterion     `json:"criteria"`
	Override     *types.CategoryWeightOverride `json:"override,omitempty"`
}

// JSONComparisonRow flattens the derived flags of a provider view.
type JSONComparisonRow struct {
	comparison.ProviderView
	AtRisk             bool `json:"atRisk"`
	NeedsFailureNotice bool `json:"needsFailureNotice"`
}

// JSONComparison is the comparison report with derived flags.
type JSONComparison struct {
	CategoryType string              `json:"categoryType"`
	Providers    []JSONComparisonRow `json:"providers"`
	AtRiskCount  int                 `json:"atRiskCount"`
}

// JSONEvent is a selection event with its ranking.
type JSONEvent struct {
	Event        types.SelectionEvent             `json:"event"`
	Ranking      []selection.Standing             `json:"ranking"`
	TotalWeight  float64                          `json:"totalWeight"`
	GroupWeights map[types.CriterionGroup]float64 `json:"groupWeights"`
}

// JSONMessage carries a confirmation line.
type JSONMessage struct {
	Message string `json:"message"`
}

// Categories writes the catalog categories.
func (f *JSONFormatter) Categories(cats []catalog.Category) error {
	return f.write(nonNil(cats))
}

// Criteria writes the active weights of a category type.
func (f *JSONFormatter) Criteria(categoryType string, criteria []types.WeightedCriterion, override *types.CategoryWeightOverride) error {
	return f.write(JSONCriteria{CategoryType: categoryType, Criteria: nonNil(criteria), Override: override})
}

// Providers writes the provider list.
func (f *JSONFormatter) Providers(providers []types.Provider) error {
	return f.write(nonNil(providers))
}

// Evaluation writes one evaluation summary.
func (f *JSONFormatter) Evaluation(s evaluation.Summary) error {
	return f.write(s)
}

// Evaluations writes a list of evaluation summaries.
func (f *JSONFormatter) Evaluations(summaries []evaluation.Summary) error {
	return f.write(nonNil(summaries))
}

// Comparison writes the comparison report.
func (f *JSONFormatter) Comparison(r comparison.Report) error {
	out := JSONComparison{CategoryType: r.CategoryType, Providers: make([]JSONComparisonRow, 0, len(r.Providers))}
	for _, v := range r.Providers {
		row := JSONComparisonRow{ProviderView: v, AtRisk: v.AtRisk(), NeedsFailureNotice: v.NeedsFailureNotice()}
		if row.AtRisk {
			out.AtRiskCount++
		}
		out.Providers = append(out.Providers, row)
	}
	return f.write(out)
}

// Event writes a selection event and its ranking.
func (f *JSONFormatter) Event(e types.SelectionEvent, ranking []selection.Standing) error {
	return f.write(JSONEvent{
		Event:        e,
		Ranking:      nonNil(ranking),
		TotalWeight:  scoring.SumPercent(e.Criteria),
		GroupWeights: selection.GroupWeights(e.Criteria),
	})
}

// Events writes the selection event list.
func (f *JSONFormatter) Events(events []types.SelectionEvent) error {
	return f.write(nonNil(events))
}

// Message writes a confirmation object.
func (f *JSONFormatter) Message(format string, args ...any) error {
	return f.write(JSONMessage{Message: fmt.Sprintf(format, args...)})
}

func (f *JSONFormatter) write(v any) error {
	var (
		data []byte
		err  error
	)
	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	if _, err := fmt.Fprintln(f.w, string(data)); err != nil {
		return fmt.Errorf("error writing JSON: %w", err)
	}
	return nil
}

// nonNil keeps empty lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
