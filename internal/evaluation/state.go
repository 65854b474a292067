package evaluation

import (
	"strings"

	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/types"
)

// State is the commitment workflow state of an evaluation.
type State string

// Workflow states. NoRemediationNeeded and CommitmentSubmitted are terminal.
const (
	StateNoRemediationNeeded State = "NoRemediationNeeded"
	StatePendingCommitment   State = "PendingCommitment"
	StateCommitmentSubmitted State = "CommitmentSubmitted"
)

// StateOf derives the workflow state from the stored record.
func StateOf(rec types.EvaluationRecord) State {
	switch {
	case rec.CommitmentSubmittedAt != nil:
		return StateCommitmentSubmitted
	case scoring.RequiresActionPlan(rec.TotalScore):
		return StatePendingCommitment
	default:
		return StateNoRemediationNeeded
	}
}

// RequiredCommitments lists, in snapshot order, the criteria whose score is
// below the per-criterion bar. Unscored criteria count as 0, except those
// that carried no weight in the snapshot. A scored criterion is checked
// whatever its weight.
func RequiredCommitments(rec types.EvaluationRecord) []string {
	var ids []string
	for _, c := range rec.Criteria {
		score, scored := rec.Scores[c.ID]
		if !scored && c.Weight == 0 {
			continue
		}
		if scoring.CommitmentRequired(score) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// FlattenCommitments joins the non-blank commitments in snapshot order.
func FlattenCommitments(criteria []types.WeightedCriterion, commitments map[string]string) string {
	parts := make([]string, 0, len(commitments))
	for _, c := range criteria {
		if text := strings.TrimSpace(commitments[c.ID]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " | ")
}

// Summary is the read model of one evaluation.
type Summary struct {
	Record         types.EvaluationRecord `json:"record"`
	State          State                  `json:"state"`
	Classification scoring.Classification `json:"classification"`
	Required       []string               `json:"requiredCommitments,omitempty"`
	Breakdown      []scoring.Contribution `json:"breakdown"`
}

// Describe builds the Summary of rec from its stored snapshot.
func Describe(rec types.EvaluationRecord) Summary {
	s := Summary{
		Record:         rec,
		State:          StateOf(rec),
		Classification: scoring.Classify(rec.TotalScore),
		Breakdown:      scoring.Breakdown(rec.Scores, rec.Criteria),
	}
	if s.State == StatePendingCommitment {
		s.Required = RequiredCommitments(rec)
	}
	return s
}
