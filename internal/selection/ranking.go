package selection

import (
	"sort"

	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/types"
)

// Groups lists the conventional criterion groups in display order.
var Groups = []types.CriterionGroup{
	types.GroupLegal,
	types.GroupTecnico,
	types.GroupOperativo,
	types.GroupFinanciero,
	types.GroupPendiente,
}

// ValidGroup reports whether g is one of the conventional groups.
func ValidGroup(g types.CriterionGroup) bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// GroupWeights sums the criteria weights per group. The per-group figures
// are informational; only the flat total is enforced.
func GroupWeights(criteria []types.Criterion) map[types.CriterionGroup]float64 {
	out := make(map[types.CriterionGroup]float64, len(Groups))
	for _, g := range Groups {
		out[g] = 0
	}
	for _, c := range criteria {
		g := c.Group
		if g == "" {
			g = types.GroupPendiente
		}
		out[g] += c.Weight
	}
	return out
}

// Standing is one competitor's place in an event.
type Standing struct {
	Rank       int                    `json:"rank"`
	Competitor types.Competitor       `json:"competitor"`
	Percent    int                    `json:"percent"`
	Decision   scoring.DecisionStatus `json:"decision"`
	Complete   bool                   `json:"complete"`
	Winner     bool                   `json:"winner"`
}

// Ranking orders competitors by total score, highest first. Ties keep name
// then id order so the result is deterministic.
func Ranking(e types.SelectionEvent) []Standing {
	out := make([]Standing, 0, len(e.Competitors))
	for _, c := range e.Competitors {
		out = append(out, Standing{
			Competitor: c,
			Percent:    scoring.Percent(c.TotalScore),
			Decision:   scoring.GetDecisionStatus(c.TotalScore),
			Complete:   scoredAll(c, e.Criteria),
			Winner:     c.ID == e.WinnerID,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Competitor, out[j].Competitor
		if !a.TotalScore.Equal(b.TotalScore) {
			return a.TotalScore.GreaterThan(b.TotalScore)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func scoredAll(c types.Competitor, criteria []types.Criterion) bool {
	for _, cr := range criteria {
		if _, ok := c.Scores[cr.ID]; !ok {
			return false
		}
	}
	return true
}
