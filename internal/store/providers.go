package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dotcommander/provscore/internal/types"
)

var providerColumns = []string{"id", "name", "category_type", "criticality", "contact_email", "slack_channel", "created_at"}

// CreateProvider inserts a new provider.
func (s *SQLite) CreateProvider(ctx context.Context, p types.Provider) error {
	_, err := s.exec(ctx, sq.Insert("providers").Columns(providerColumns...).Values(
		p.ID, p.Name, p.CategoryType, string(p.Criticality), p.ContactEmail, p.SlackChannel, p.CreatedAt,
	))
	if err != nil {
		return fmt.Errorf("insert provider %s: %w", p.ID, err)
	}
	return nil
}

// GetProvider loads one provider.
func (s *SQLite) GetProvider(ctx context.Context, id string) (types.Provider, error) {
	row, err := s.queryRow(ctx, sq.Select(providerColumns...).From("providers").Where(sq.Eq{"id": id}))
	if err != nil {
		return types.Provider{}, err
	}
	p, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Provider{}, types.NotFound("provider", id)
	}
	return p, err
}

// ListProviders returns providers ordered by name, optionally restricted to
// one category type.
func (s *SQLite) ListProviders(ctx context.Context, categoryType string) ([]types.Provider, error) {
	q := sq.Select(providerColumns...).From("providers").OrderBy("name", "id")
	if categoryType != "" {
		q = q.Where(sq.Eq{"category_type": categoryType})
	}

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	var out []types.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SetCriticality changes the weight set used by future evaluations. Stored
// evaluations are not touched.
func (s *SQLite) SetCriticality(ctx context.Context, id string, c types.Criticality) error {
	res, err := s.exec(ctx, sq.Update("providers").Set("criticality", string(c)).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update provider %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("provider", id)
	}
	return nil
}

func scanProvider(r rowScanner) (types.Provider, error) {
	var (
		p    types.Provider
		crit string
	)
	if err := r.Scan(&p.ID, &p.Name, &p.CategoryType, &crit, &p.ContactEmail, &p.SlackChannel, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan provider: %w", err)
	}
	p.Criticality = types.Criticality(crit)
	return p, nil
}
