// Package comparison builds the cross-provider view of a category: the
// latest evaluation per provider and type, and which providers are at risk.
package comparison

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

// Key identifies one provider/evaluation-type pair.
type Key struct {
	ProviderID     string
	EvaluationType string
}

// Latest picks, per provider and evaluation type, the record with the
// highest CreatedAt, breaking ties on the highest ID. Input order does not
// matter.
func Latest(records []types.EvaluationRecord) map[Key]types.EvaluationRecord {
	out := make(map[Key]types.EvaluationRecord)
	for _, r := range records {
		k := Key{ProviderID: r.ProviderID, EvaluationType: r.EvaluationType}
		if cur, ok := out[k]; !ok || newer(r, cur) {
			out[k] = r
		}
	}
	return out
}

func newer(a, b types.EvaluationRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Standing is the status derived from a provider's latest evaluation of
// one type.
type Standing struct {
	Record        types.EvaluationRecord   `json:"record"`
	Status        scoring.PerformanceLabel `json:"status"`
	Percent       int                      `json:"percent"`
	IsAtRisk      bool                     `json:"isAtRisk"`
	HasCommitment bool                     `json:"hasCommitment"`
}

// NewStanding derives the standing of a record.
func NewStanding(r types.EvaluationRecord) Standing {
	return Standing{
		Record:        r,
		Status:        scoring.PerformanceStatus(r.TotalScore),
		Percent:       scoring.Percent(r.TotalScore),
		IsAtRisk:      scoring.RequiresActionPlan(r.TotalScore),
		HasCommitment: r.CommitmentSubmittedAt != nil,
	}
}

// ProviderView is one row of the comparison.
type ProviderView struct {
	Provider types.Provider      `json:"provider"`
	Latest   map[string]Standing `json:"latest"`
}

// Types returns the evaluation types present, sorted.
func (v ProviderView) Types() []string {
	out := make([]string, 0, len(v.Latest))
	for t := range v.Latest {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AtRisk reports whether any latest evaluation is under the remediation
// threshold. At-risk providers are candidates for a substitution event.
func (v ProviderView) AtRisk() bool {
	for _, s := range v.Latest {
		if s.IsAtRisk {
			return true
		}
	}
	return false
}

// NeedsFailureNotice reports whether an at-risk evaluation still lacks a
// commitment.
func (v ProviderView) NeedsFailureNotice() bool {
	for _, s := range v.Latest {
		if s.IsAtRisk && !s.HasCommitment {
			return true
		}
	}
	return false
}

// Report is the comparison of all providers in a category.
type Report struct {
	CategoryType string         `json:"categoryType"`
	Providers    []ProviderView `json:"providers"`
}

// AtRisk returns the at-risk rows.
func (r Report) AtRisk() []ProviderView {
	var out []ProviderView
	for _, v := range r.Providers {
		if v.AtRisk() {
			out = append(out, v)
		}
	}
	return out
}

// Build assembles a report from providers and their evaluations.
func Build(categoryType string, providers []types.Provider, records []types.EvaluationRecord) Report {
	latest := Latest(records)

	r := Report{CategoryType: categoryType, Providers: make([]ProviderView, 0, len(providers))}
	for _, p := range providers {
		v := ProviderView{Provider: p, Latest: make(map[string]Standing)}
		for k, rec := range latest {
			if k.ProviderID == p.ID {
				v.Latest[k.EvaluationType] = NewStanding(rec)
			}
		}
		r.Providers = append(r.Providers, v)
	}
	return r
}

// Stores is the persistence the service reads.
type Stores interface {
	store.ProviderStore
	store.EvaluationStore
}

// Service computes comparisons and sends at-risk notices.
type Service struct {
	catalog  *catalog.Catalog
	store    Stores
	authz    authz.Authorizer
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewService wires a Service.
func NewService(cat *catalog.Catalog, st Stores, az authz.Authorizer, n *notify.Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{catalog: cat, store: st, authz: az, notifier: n, logger: logger.With("component", "comparison")}
}

// Compare returns the report for a category type.
func (s *Service) Compare(ctx context.Context, categoryType string) (Report, error) {
	if _, err := s.catalog.Category(categoryType); err != nil {
		return Report{}, err
	}

	providers, err := s.store.ListProviders(ctx, categoryType)
	if err != nil {
		return Report{}, err
	}
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}

	records, err := s.store.ListEvaluations(ctx, store.EvaluationFilter{ProviderIDs: ids})
	if err != nil {
		return Report{}, fmt.Errorf("load evaluations: %w", err)
	}
	return Build(categoryType, providers, records), nil
}

// NotifyAtRisk sends a failure notice for every at-risk latest evaluation
// without a commitment. It returns how many notices were delivered.
func (s *Service) NotifyAtRisk(ctx context.Context, actor authz.Actor, categoryType string) (int, error) {
	if err := s.authz.Authorize(actor, authz.ActionNotify, authz.Resource{Kind: "category", ID: categoryType}); err != nil {
		return 0, err
	}
	report, err := s.Compare(ctx, categoryType)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, v := range report.Providers {
		for _, t := range v.Types() {
			st := v.Latest[t]
			if !st.IsAtRisk || st.HasCommitment {
				continue
			}
			n := evaluation.FailureNotification(v.Provider, st.Record)
			n.Kind = notify.KindProviderAtRisk
			if err := s.notifier.Send(ctx, n); err == nil {
				sent++
			}
		}
	}
	s.logger.Info("at-risk notices sent", "category", categoryType, "count", sent)
	return sent, nil
}
