// Package weights manages per-category overrides of the normal weight set.
// Critical weights are catalog constants and cannot be overridden.
package weights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/discovery"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

// Service validates and persists weight overrides.
type Service struct {
	catalog   *catalog.Catalog
	store     store.WeightStore
	authz     authz.Authorizer
	validator *cue.Validator
	logger    *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewService wires a Service. validator may be nil, in which case imported
// files skip schema validation.
func NewService(cat *catalog.Catalog, st store.WeightStore, az authz.Authorizer, v *cue.Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog:   cat,
		store:     st,
		authz:     az,
		validator: v,
		logger:    logger.With("component", "weights"),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetWeights replaces the normal weights of a category type. Weights are
// percentage points; criteria left out weigh 0. Nothing is written unless
// the set sums to 100.
func (s *Service) SetWeights(ctx context.Context, actor authz.Actor, categoryType string, weights map[string]float64) (types.CategoryWeightOverride, error) {
	if err := s.authz.Authorize(actor, authz.ActionSetWeights, authz.Resource{Kind: "weights", ID: categoryType}); err != nil {
		return types.CategoryWeightOverride{}, err
	}

	defs, err := s.catalog.Definitions(categoryType)
	if err != nil {
		return types.CategoryWeightOverride{}, err
	}
	if err := s.checkKnownIDs(categoryType, weights); err != nil {
		return types.CategoryWeightOverride{}, err
	}
	if err := scoring.ValidatePercentWeights(categoryType, weights); err != nil {
		return types.CategoryWeightOverride{}, err
	}

	o := types.CategoryWeightOverride{
		CategoryType: categoryType,
		Weights:      make(map[string]float64, len(defs)),
		UpdatedBy:    actor.ID,
		UpdatedAt:    s.Now(),
	}
	for _, def := range defs {
		o.Weights[def.ID] = weights[def.ID]
	}

	if err := s.store.SaveOverride(ctx, o); err != nil {
		return types.CategoryWeightOverride{}, fmt.Errorf("save weights: %w", err)
	}
	s.logger.Info("weights updated", "category", categoryType, "by", actor.ID)
	return o, nil
}

// Get returns the override of a category type, or nil when the catalog
// weights apply.
func (s *Service) Get(ctx context.Context, categoryType string) (*types.CategoryWeightOverride, error) {
	if _, err := s.catalog.Category(categoryType); err != nil {
		return nil, err
	}
	return s.store.GetOverride(ctx, categoryType)
}

// Reset removes the override of a category type.
func (s *Service) Reset(ctx context.Context, actor authz.Actor, categoryType string) error {
	if err := s.authz.Authorize(actor, authz.ActionSetWeights, authz.Resource{Kind: "weights", ID: categoryType}); err != nil {
		return err
	}
	if _, err := s.catalog.Category(categoryType); err != nil {
		return err
	}
	if err := s.store.DeleteOverride(ctx, categoryType); err != nil {
		return err
	}
	s.logger.Info("weights reset", "category", categoryType, "by", actor.ID)
	return nil
}

// ActiveWeights returns the weight set an evaluation of p would use right
// now. The override is not consulted for critical providers.
func (s *Service) ActiveWeights(ctx context.Context, p types.Provider) ([]types.WeightedCriterion, error) {
	return s.ActiveWeightsFor(ctx, p.CategoryType, p.Criticality)
}

// ActiveWeightsFor is ActiveWeights for an explicit category type.
func (s *Service) ActiveWeightsFor(ctx context.Context, categoryType string, c types.Criticality) ([]types.WeightedCriterion, error) {
	var override *types.CategoryWeightOverride
	if !c.IsCritical() {
		var err error
		override, err = s.store.GetOverride(ctx, categoryType)
		if err != nil {
			return nil, fmt.Errorf("load weights: %w", err)
		}
	}
	return s.catalog.CriteriaForType(categoryType, c.IsCritical(), override)
}

// File is the on-disk form of an override.
type File struct {
	CategoryType string             `yaml:"categoryType"`
	Weights      map[string]float64 `yaml:"weights"`
}

// Import applies one weights document.
func (s *Service) Import(ctx context.Context, actor authz.Actor, name string, raw []byte) (types.CategoryWeightOverride, error) {
	if s.validator != nil {
		var data map[string]any
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return types.CategoryWeightOverride{}, fmt.Errorf("parse %s: %w", name, err)
		}
		issues, err := s.validator.ValidateWeights(name, data)
		if err != nil {
			return types.CategoryWeightOverride{}, err
		}
		if len(issues) > 0 {
			return types.CategoryWeightOverride{}, &types.ConfigurationError{Scope: name, Message: cue.Join(issues)}
		}
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return types.CategoryWeightOverride{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return s.SetWeights(ctx, actor, f.CategoryType, f.Weights)
}

// ImportDir applies every weights file under dataDir in path order. It
// stops at the first invalid file; files before it stay applied.
func (s *Service) ImportDir(ctx context.Context, actor authz.Actor, dataDir string) ([]types.CategoryWeightOverride, error) {
	files, err := discovery.NewFileDiscovery(dataDir).DiscoverFiles(discovery.FileTypeWeights)
	if err != nil {
		return nil, fmt.Errorf("discover weights: %w", err)
	}

	var applied []types.CategoryWeightOverride
	for _, f := range files {
		o, err := s.Import(ctx, actor, f.RelPath, f.Contents)
		if err != nil {
			return applied, err
		}
		applied = append(applied, o)
	}
	return applied, nil
}

func (s *Service) checkKnownIDs(categoryType string, weights map[string]float64) error {
	var unknown []string
	for id := range weights {
		if !s.catalog.HasCriterion(categoryType, id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &types.ConfigurationError{Scope: categoryType, Message: fmt.Sprintf("unknown criteria %v", unknown)}
}
