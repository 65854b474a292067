package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/comparison"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/selection"
	"github.com/dotcommander/provscore/internal/types"
)

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	w       io.Writer
	verbose bool

	title lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
}

// NewConsoleFormatter creates a ConsoleFormatter writing to w. Colors are
// only emitted when w is a terminal.
func NewConsoleFormatter(w io.Writer, verbose bool) *ConsoleFormatter {
	r := lipgloss.NewRenderer(w)
	return &ConsoleFormatter{
		w:       w,
		verbose: verbose,
		title:   r.NewStyle().Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("7")),  // gray
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")), // green
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),  // yellow
		bad:     r.NewStyle().Foreground(lipgloss.Color("9")),  // red
	}
}

var _ Formatter = (*ConsoleFormatter)(nil)

// Categories prints the category types of the catalog.
func (f *ConsoleFormatter) Categories(cats []catalog.Category) error {
	for _, c := range cats {
		f.printf("%s  %s %s\n", f.title.Render(c.Type), c.Label, f.dim.Render(fmt.Sprintf("(%d criteria)", len(c.Criteria))))
		if !f.verbose {
			continue
		}
		for _, d := range c.Criteria {
			f.printf("    %-24s %5.1f%% normal  %5.1f%% critical\n", d.ID, d.WeightNormal*100, d.WeightCritical*100)
		}
	}
	return nil
}

// Criteria prints the active weights of a category type.
func (f *ConsoleFormatter) Criteria(categoryType string, criteria []types.WeightedCriterion, override *types.CategoryWeightOverride) error {
	source := "catalog defaults"
	if override != nil {
		source = "override"
		if override.UpdatedBy != "" {
			source += " by " + override.UpdatedBy
		}
	}
	f.printf("%s %s\n", f.title.Render(categoryType), f.dim.Render("("+source+")"))
	for _, c := range criteria {
		f.printf("  %-24s %-40s %5.1f%%\n", c.ID, c.Label, c.Weight*100)
	}
	return nil
}

// Providers prints one line per provider.
func (f *ConsoleFormatter) Providers(providers []types.Provider) error {
	if len(providers) == 0 {
		f.printf("%s\n", f.dim.Render("No providers"))
		return nil
	}
	for _, p := range providers {
		crit := p.Criticality.String()
		if p.Criticality.IsCritical() {
			crit = f.warn.Render(crit)
		}
		f.printf("%-36s  %-30s  %-12s  %s\n", p.ID, p.Name, p.CategoryType, crit)
	}
	return nil
}

// Evaluation prints a single evaluation with its breakdown.
func (f *ConsoleFormatter) Evaluation(s evaluation.Summary) error {
	rec := s.Record
	f.printf("%s %s\n", f.title.Render("Evaluation "+rec.ID), f.dim.Render("("+rec.EvaluationType+")"))
	f.printf("  Provider:    %s\n", rec.ProviderID)
	f.printf("  Criticality: %s\n", rec.Criticality)
	f.printf("  Total:       %s / 5 (%d%%) %s\n", rec.TotalScore.StringFixed(2), s.Classification.Percent, f.label(s.Classification.Label))
	f.printf("  State:       %s\n", f.state(s.State))
	if rec.EvaluatorID != "" {
		f.printf("  Evaluator:   %s\n", rec.EvaluatorID)
	}
	f.printf("  Created:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))

	f.printf("\n")
	for _, c := range s.Breakdown {
		score := "-"
		if c.Scored {
			score = fmt.Sprintf("%d", c.Score)
		}
		line := fmt.Sprintf("  %-24s %5.1f%%  %s  %s", c.ID, c.Weight*100, score, c.Points.StringFixed(2))
		if (c.Scored || c.Weight > 0) && scoring.CommitmentRequired(c.Score) {
			line = f.bad.Render(line)
		}
		f.printf("%s\n", line)
		if j := rec.ScoreJustifications[c.ID]; j != "" && f.verbose {
			f.printf("      %s\n", f.dim.Render(j))
		}
	}

	if len(s.Required) > 0 {
		f.printf("\n%s %s\n", f.warn.Render("Commitment required for:"), strings.Join(s.Required, ", "))
	}
	if rec.CommitmentSubmittedAt != nil {
		f.printf("\n%s %s\n", f.ok.Render("Commitment submitted"), rec.CommitmentSubmittedAt.Format("2006-01-02 15:04"))
		for _, c := range rec.Criteria {
			if text := rec.ImprovementCommitments[c.ID]; text != "" {
				f.printf("  %-24s %s\n", c.ID, text)
			}
		}
	}
	if rec.Comments != "" {
		f.printf("\n  %s\n", rec.Comments)
	}
	return nil
}

// Evaluations prints one line per evaluation, newest first.
func (f *ConsoleFormatter) Evaluations(summaries []evaluation.Summary) error {
	if len(summaries) == 0 {
		f.printf("%s\n", f.dim.Render("No evaluations"))
		return nil
	}
	for _, s := range summaries {
		rec := s.Record
		f.printf("%-36s  %-12s  %s  %5s  %-15s  %s\n",
			rec.ID, rec.EvaluationType, rec.CreatedAt.Format("2006-01-02"),
			rec.TotalScore.StringFixed(2), f.label(s.Classification.Label), f.state(s.State))
	}
	return nil
}

// Comparison prints the latest standing of every provider in a category.
func (f *ConsoleFormatter) Comparison(r comparison.Report) error {
	f.printf("%s\n", f.title.Render("Comparison "+r.CategoryType))
	if len(r.Providers) == 0 {
		f.printf("%s\n", f.dim.Render("No providers"))
		return nil
	}
	for _, v := range r.Providers {
		marker := f.ok.Render("✓")
		if v.AtRisk() {
			marker = f.bad.Render("✗")
		}
		f.printf("%s %s %s\n", marker, v.Provider.Name, f.dim.Render("("+v.Provider.Criticality.String()+")"))
		evalTypes := v.Types()
		if len(evalTypes) == 0 {
			f.printf("    %s\n", f.dim.Render("not evaluated"))
		}
		for _, t := range evalTypes {
			s := v.Latest[t]
			line := fmt.Sprintf("    %-14s %s (%d%%) %s", t, s.Record.TotalScore.StringFixed(2), s.Percent, f.label(s.Status))
			if s.IsAtRisk && !s.HasCommitment {
				line += " " + f.warn.Render("commitment pending")
			}
			f.printf("%s\n", line)
		}
	}
	if atRisk := r.AtRisk(); len(atRisk) > 0 {
		f.printf("\n%d provider(s) at risk, candidates for substitution\n", len(atRisk))
	}
	return nil
}

// Event prints a selection event with criteria and ranking.
func (f *ConsoleFormatter) Event(e types.SelectionEvent, ranking []selection.Standing) error {
	status := f.ok.Render(string(e.Status))
	if e.IsClosed() {
		status = f.dim.Render(string(e.Status))
	}
	f.printf("%s %s %s\n", f.title.Render(e.Name), status, f.dim.Render(e.ID))
	if e.Type != "" {
		f.printf("  Type: %s\n", e.Type)
	}

	f.printf("\n%s\n", f.title.Render("Criteria"))
	for _, c := range e.Criteria {
		f.printf("  %-24s %-11s %6.2f%%  %s\n", c.ID, c.Group, c.Weight, c.Label)
	}
	sum := scoring.SumPercent(e.Criteria)
	total := fmt.Sprintf("  %-36s %6.2f%%", "total", sum)
	if math.Abs(sum-100) > scoring.PercentTolerance {
		total = f.warn.Render(total)
	}
	f.printf("%s\n", total)
	if f.verbose {
		for _, g := range selection.Groups {
			f.printf("    %-12s %6.2f%%\n", g, selection.GroupWeights(e.Criteria)[g])
		}
	}

	f.printf("\n%s\n", f.title.Render("Ranking"))
	if len(ranking) == 0 {
		f.printf("  %s\n", f.dim.Render("No competitors"))
	}
	for _, s := range ranking {
		name := s.Competitor.Name
		if s.Winner {
			name = f.ok.Render("★ " + name)
		}
		partial := ""
		if !s.Complete {
			partial = f.dim.Render(" (partial)")
		}
		f.printf("  %d. %-30s %s (%d%%) %s%s %s\n", s.Rank, name, s.Competitor.TotalScore.StringFixed(2), s.Percent, s.Decision, partial, f.dim.Render(s.Competitor.ID))
		if f.verbose && s.Competitor.AuditNotes != "" {
			f.printf("      %s\n", f.dim.Render(s.Competitor.AuditNotes))
		}
	}

	if e.IsClosed() && e.WinnerJustification != "" {
		f.printf("\nJustification: %s\n", e.WinnerJustification)
	}
	return nil
}

// Events prints one line per selection event.
func (f *ConsoleFormatter) Events(events []types.SelectionEvent) error {
	if len(events) == 0 {
		f.printf("%s\n", f.dim.Render("No selection events"))
		return nil
	}
	for _, e := range events {
		f.printf("%-36s  %-30s  %-8s  %d competitor(s)\n", e.ID, e.Name, e.Status, len(e.Competitors))
	}
	return nil
}

// Message prints a confirmation line.
func (f *ConsoleFormatter) Message(format string, args ...any) error {
	f.printf("%s %s\n", f.ok.Render("✓"), fmt.Sprintf(format, args...))
	return nil
}

func (f *ConsoleFormatter) printf(format string, args ...any) {
	fmt.Fprintf(f.w, format, args...)
}

func (f *ConsoleFormatter) label(l scoring.PerformanceLabel) string {
	switch l {
	case scoring.PerformanceSobresaliente, scoring.PerformanceSatisfactorio:
		return f.ok.Render(string(l))
	case scoring.PerformanceObservacion:
		return f.warn.Render(string(l))
	default:
		return f.bad.Render(string(l))
	}
}

func (f *ConsoleFormatter) state(s evaluation.State) string {
	switch s {
	case evaluation.StatePendingCommitment:
		return f.warn.Render(string(s))
	case evaluation.StateCommitmentSubmitted:
		return f.ok.Render(string(s))
	default:
		return f.dim.Render(string(s))
	}
}
