// Package store persists providers, evaluations, weight overrides and
// selection events. Every state transition is a conditional write so two
// concurrent callers cannot both move a record out of the same state.
package store

import (
	"context"
	"time"

	"github.com/dotcommander/provscore/internal/types"
)

// ProviderStore reads and writes supplier records.
type ProviderStore interface {
	CreateProvider(ctx context.Context, p types.Provider) error
	GetProvider(ctx context.Context, id string) (types.Provider, error)
	ListProviders(ctx context.Context, categoryType string) ([]types.Provider, error)
	SetCriticality(ctx context.Context, id string, c types.Criticality) error
}

// EvaluationFilter narrows ListEvaluations. Empty fields match everything.
type EvaluationFilter struct {
	ProviderID     string
	EvaluationType string
	ProviderIDs    []string
}

// EvaluationStore persists evaluation records.
type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, rec types.EvaluationRecord) error
	GetEvaluation(ctx context.Context, id string) (types.EvaluationRecord, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]types.EvaluationRecord, error)
	// SubmitCommitment writes the commitment fields only while they are
	// still empty. It returns a StaleStateError when they are not.
	SubmitCommitment(ctx context.Context, id string, commitments map[string]string, flat string, at time.Time) error
	DeleteEvaluation(ctx context.Context, id string) error
}

// WeightStore persists category weight overrides.
type WeightStore interface {
	// GetOverride returns nil without error when no override exists.
	GetOverride(ctx context.Context, categoryType string) (*types.CategoryWeightOverride, error)
	SaveOverride(ctx context.Context, o types.CategoryWeightOverride) error
	DeleteOverride(ctx context.Context, categoryType string) error
}

// SelectionStore persists selection events.
type SelectionStore interface {
	CreateEvent(ctx context.Context, e types.SelectionEvent) error
	GetEvent(ctx context.Context, id string) (types.SelectionEvent, error)
	ListEvents(ctx context.Context) ([]types.SelectionEvent, error)
	// UpdateEvent replaces the event only if the stored row is still open
	// and at e.Version. The stored version is incremented on success.
	UpdateEvent(ctx context.Context, e types.SelectionEvent) error
}

// Store is the full persistence surface.
type Store interface {
	ProviderStore
	EvaluationStore
	WeightStore
	SelectionStore
	Close() error
}
