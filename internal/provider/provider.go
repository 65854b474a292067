// Package provider manages supplier records and their criticality flag.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

// Service creates and lists providers.
type Service struct {
	catalog *catalog.Catalog
	store   store.ProviderStore
	authz   authz.Authorizer
	logger  *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// NewService wires a Service.
func NewService(cat *catalog.Catalog, st store.ProviderStore, az authz.Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog: cat,
		store:   st,
		authz:   az,
		logger:  logger.With("component", "provider"),
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
}

// Create registers a provider in a known category type.
func (s *Service) Create(ctx context.Context, actor authz.Actor, p types.Provider) (types.Provider, error) {
	if err := s.authz.Authorize(actor, authz.ActionManageProviders, authz.Resource{Kind: "provider"}); err != nil {
		return types.Provider{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return types.Provider{}, &types.ValidationError{Message: "provider name is required"}
	}
	if _, err := s.catalog.Category(p.CategoryType); err != nil {
		return types.Provider{}, err
	}
	if p.Criticality != types.Unassigned {
		if err := s.authz.Authorize(actor, authz.ActionSetCriticality, authz.Resource{Kind: "provider"}); err != nil {
			return types.Provider{}, err
		}
	}

	if p.ID == "" {
		p.ID = s.NewID()
	}
	p.CreatedAt = s.Now()
	if err := s.store.CreateProvider(ctx, p); err != nil {
		return types.Provider{}, err
	}
	s.logger.Info("provider created", "id", p.ID, "category", p.CategoryType)
	return p, nil
}

// Get loads a provider.
func (s *Service) Get(ctx context.Context, id string) (types.Provider, error) {
	return s.store.GetProvider(ctx, id)
}

// List returns providers, optionally restricted to one category type.
func (s *Service) List(ctx context.Context, categoryType string) ([]types.Provider, error) {
	if categoryType != "" {
		if _, err := s.catalog.Category(categoryType); err != nil {
			return nil, err
		}
	}
	return s.store.ListProviders(ctx, categoryType)
}

// SetCriticality changes which weight set future evaluations use. Stored
// evaluations keep the totals they were created with.
func (s *Service) SetCriticality(ctx context.Context, actor authz.Actor, id string, c types.Criticality) error {
	if err := s.authz.Authorize(actor, authz.ActionSetCriticality, authz.Resource{Kind: "provider", ID: id}); err != nil {
		return err
	}
	if err := s.store.SetCriticality(ctx, id, c); err != nil {
		return fmt.Errorf("set criticality: %w", err)
	}
	s.logger.Info("criticality changed", "id", id, "criticality", string(c), "by", actor.ID)
	return nil
}
