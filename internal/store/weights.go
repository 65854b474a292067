package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dotcommander/provscore/internal/types"
)

// GetOverride loads the override of a category type, or nil.
func (s *SQLite) GetOverride(ctx context.Context, categoryType string) (*types.CategoryWeightOverride, error) {
	row, err := s.queryRow(ctx, sq.Select("category_type", "weights", "updated_by", "updated_at").
		From("weight_overrides").
		Where(sq.Eq{"category_type": categoryType}))
	if err != nil {
		return nil, err
	}

	var (
		o   types.CategoryWeightOverride
		raw string
	)
	if err := row.Scan(&o.CategoryType, &raw, &o.UpdatedBy, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan weight override: %w", err)
	}
	if err := decodeJSON(raw, &o.Weights); err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOverride inserts or replaces the override of a category type.
func (s *SQLite) SaveOverride(ctx context.Context, o types.CategoryWeightOverride) error {
	raw, err := encodeJSON(o.Weights)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, sq.Insert("weight_overrides").
		Columns("category_type", "weights", "updated_by", "updated_at").
		Values(o.CategoryType, raw, o.UpdatedBy, o.UpdatedAt).
		Suffix("ON CONFLICT(category_type) DO UPDATE SET weights = excluded.weights, updated_by = excluded.updated_by, updated_at = excluded.updated_at"))
	if err != nil {
		return fmt.Errorf("save weight override %s: %w", o.CategoryType, err)
	}
	return nil
}

// DeleteOverride removes the override so catalog weights apply again.
func (s *SQLite) DeleteOverride(ctx context.Context, categoryType string) error {
	res, err := s.exec(ctx, sq.Delete("weight_overrides").Where(sq.Eq{"category_type": categoryType}))
	if err != nil {
		return fmt.Errorf("delete weight override %s: %w", categoryType, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("weight override", categoryType)
	}
	return nil
}
