// Package evaluation creates provider evaluations and runs the improvement
// commitment workflow on them.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

// WeightResolver returns the weight set that applies to a new evaluation.
type WeightResolver interface {
	ActiveWeightsFor(ctx context.Context, categoryType string, c types.Criticality) ([]types.WeightedCriterion, error)
}

// Stores is the persistence the service needs.
type Stores interface {
	store.ProviderStore
	store.EvaluationStore
}

// Service implements evaluation creation and commitment submission.
type Service struct {
	store    Stores
	weights  WeightResolver
	authz    authz.Authorizer
	notifier *notify.Dispatcher
	logger   *slog.Logger

	// AdminChannel receives commitment notifications.
	AdminChannel string

	Now   func() time.Time
	NewID func() string
}

// NewService wires a Service.
func NewService(st Stores, w WeightResolver, az authz.Authorizer, n *notify.Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    st,
		weights:  w,
		authz:    az,
		notifier: n,
		logger:   logger.With("component", "evaluation"),
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

// CreateInput is an evaluator's scoring of one provider.
type CreateInput struct {
	ProviderID string
	// EvaluationType defaults to the provider's category type.
	EvaluationType string
	Scores         map[string]int
	Justifications map[string]string
	Comments       string
}

// Create scores a provider with its currently active weights and stores the
// record with the weight snapshot and total. The total is never recomputed.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (types.EvaluationRecord, error) {
	p, err := s.store.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return types.EvaluationRecord{}, err
	}
	if err := s.authz.Authorize(actor, authz.ActionCreateEvaluation, authz.Resource{Kind: "provider", ID: p.ID, OwnerProviderID: p.ID}); err != nil {
		return types.EvaluationRecord{}, err
	}

	evalType := in.EvaluationType
	if evalType == "" {
		evalType = p.CategoryType
	}
	criteria, err := s.weights.ActiveWeightsFor(ctx, evalType, p.Criticality)
	if err != nil {
		return types.EvaluationRecord{}, err
	}
	if err := validateScores(criteria, in.Scores); err != nil {
		return types.EvaluationRecord{}, err
	}

	rec := types.EvaluationRecord{
		ID:                  s.NewID(),
		ProviderID:          p.ID,
		EvaluationType:      evalType,
		Criticality:         p.Criticality,
		Criteria:            criteria,
		Scores:              copyScores(in.Scores),
		ScoreJustifications: trimTexts(in.Justifications),
		TotalScore:          scoring.ComputeTotalScore(in.Scores, criteria),
		Comments:            strings.TrimSpace(in.Comments),
		EvaluatorID:         actor.ID,
		CreatedAt:           s.Now(),
	}
	if err := s.store.CreateEvaluation(ctx, rec); err != nil {
		return types.EvaluationRecord{}, err
	}
	s.logger.Info("evaluation created", "id", rec.ID, "provider", p.ID, "total", rec.TotalScore.StringFixed(2))

	if scoring.RequiresActionPlan(rec.TotalScore) {
		_ = s.notifier.Send(ctx, FailureNotification(p, rec))
	}
	return rec, nil
}

// Get loads one record.
func (s *Service) Get(ctx context.Context, id string) (types.EvaluationRecord, error) {
	return s.store.GetEvaluation(ctx, id)
}

// ListForProvider returns the provider's records, newest first, optionally
// restricted to one evaluation type.
func (s *Service) ListForProvider(ctx context.Context, providerID, evaluationType string) ([]types.EvaluationRecord, error) {
	if _, err := s.store.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.store.ListEvaluations(ctx, store.EvaluationFilter{ProviderID: providerID, EvaluationType: evaluationType})
}

// Delete hard-deletes a record. Administrators only.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	rec, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, authz.ActionDeleteEvaluation, authz.Resource{Kind: "evaluation", ID: id, OwnerProviderID: rec.ProviderID}); err != nil {
		return err
	}
	if err := s.store.DeleteEvaluation(ctx, id); err != nil {
		return err
	}
	s.logger.Info("evaluation deleted", "id", id, "by", actor.ID)
	return nil
}

// SubmitCommitment moves a PendingCommitment evaluation to
// CommitmentSubmitted. Every criterion below the per-criterion bar needs a
// non-blank text; the submission is all or nothing.
func (s *Service) SubmitCommitment(ctx context.Context, actor authz.Actor, id string, commitments map[string]string) (types.EvaluationRecord, error) {
	rec, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return types.EvaluationRecord{}, err
	}
	if err := s.authz.Authorize(actor, authz.ActionSubmitCommitment, authz.Resource{Kind: "evaluation", ID: id, OwnerProviderID: rec.ProviderID}); err != nil {
		return types.EvaluationRecord{}, err
	}

	switch StateOf(rec) {
	case StateCommitmentSubmitted:
		return types.EvaluationRecord{}, types.Stale("evaluation", id, "commitment already submitted")
	case StateNoRemediationNeeded:
		return types.EvaluationRecord{}, types.Stale("evaluation", id, "evaluation does not require a commitment")
	}

	cleaned, err := checkCommitments(rec, commitments)
	if err != nil {
		return types.EvaluationRecord{}, err
	}

	at := s.Now()
	flat := FlattenCommitments(rec.Criteria, cleaned)
	if err := s.store.SubmitCommitment(ctx, id, cleaned, flat, at); err != nil {
		return types.EvaluationRecord{}, err
	}

	rec.ImprovementCommitments = cleaned
	rec.ImprovementCommitment = flat
	rec.CommitmentSubmittedAt = &at
	s.logger.Info("commitment submitted", "id", id, "provider", rec.ProviderID, "by", actor.ID)

	_ = s.notifier.Send(ctx, notify.Notification{
		Kind:    notify.KindCommitmentSubmitted,
		Channel: s.AdminChannel,
		Title:   "Compromiso de mejora recibido",
		Text:    fmt.Sprintf("El proveedor %s registró su plan de mejora.", rec.ProviderID),
		Fields: []notify.Field{
			{Name: "Evaluación", Value: rec.ID},
			{Name: "Puntaje", Value: rec.TotalScore.StringFixed(2)},
			{Name: "Compromiso", Value: flat},
		},
	})
	return rec, nil
}

// FailureNotification is the provider alert for an evaluation under the
// remediation threshold.
func FailureNotification(p types.Provider, rec types.EvaluationRecord) notify.Notification {
	c := scoring.Classify(rec.TotalScore)
	return notify.Notification{
		Kind:    notify.KindEvaluationFailed,
		Channel: p.SlackChannel,
		Title:   "Evaluación de desempeño bajo el umbral",
		Text:    fmt.Sprintf("%s obtuvo %s (%d%%). Debe registrar un compromiso de mejora.", p.Name, rec.TotalScore.StringFixed(2), c.Percent),
		Fields: []notify.Field{
			{Name: "Evaluación", Value: rec.ID},
			{Name: "Estado", Value: string(c.Label)},
			{Name: "Criterios a mejorar", Value: strings.Join(RequiredCommitments(rec), ", ")},
		},
	}
}

func validateScores(criteria []types.WeightedCriterion, scores map[string]int) error {
	if len(scores) == 0 {
		return &types.ValidationError{Message: "at least one score is required"}
	}

	known := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		known[c.ID] = true
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !known[id] {
			return &types.ValidationError{Message: "unknown criterion " + id}
		}
		if !scoring.ValidScore(scores[id]) {
			return &types.ValidationError{Message: fmt.Sprintf("score for %s must be between %d and %d, got %d", id, scoring.MinScore, scoring.MaxScore, scores[id])}
		}
	}
	return nil
}

func checkCommitments(rec types.EvaluationRecord, commitments map[string]string) (map[string]string, error) {
	inSnapshot := make(map[string]bool, len(rec.Criteria))
	for _, c := range rec.Criteria {
		inSnapshot[c.ID] = true
	}

	var unknown []string
	for id := range commitments {
		if !inSnapshot[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &types.ValidationError{Message: "commitments for unknown criteria: " + strings.Join(unknown, ", ")}
	}

	cleaned := trimTexts(commitments)
	var missing []string
	for _, id := range RequiredCommitments(rec) {
		if cleaned[id] == "" {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &types.ValidationError{Message: "missing improvement commitments", Missing: missing}
	}
	return cleaned, nil
}

func trimTexts(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func copyScores(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
