package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dotcommander/provscore/internal/types"
)

var eventColumns = []string{
	"id", "name", "type", "status", "criteria", "competitors", "winner_id",
	"winner_justification", "closed_at", "version", "created_at",
}

// CreateEvent inserts a new event.
func (s *SQLite) CreateEvent(ctx context.Context, e types.SelectionEvent) error {
	criteria, competitors, err := encodeEvent(e)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, sq.Insert("selection_events").Columns(eventColumns...).Values(
		e.ID, e.Name, e.Type, string(e.Status), criteria, competitors, e.WinnerID,
		e.WinnerJustification, e.ClosedAt, e.Version, e.CreatedAt,
	))
	if err != nil {
		return fmt.Errorf("insert selection event %s: %w", e.ID, err)
	}
	return nil
}

// GetEvent loads one event with its criteria and competitors.
func (s *SQLite) GetEvent(ctx context.Context, id string) (types.SelectionEvent, error) {
	row, err := s.queryRow(ctx, sq.Select(eventColumns...).From("selection_events").Where(sq.Eq{"id": id}))
	if err != nil {
		return types.SelectionEvent{}, err
	}
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SelectionEvent{}, types.NotFound("selection event", id)
	}
	return e, err
}

// ListEvents returns all events, newest first.
func (s *SQLite) ListEvents(ctx context.Context) ([]types.SelectionEvent, error) {
	rows, err := s.query(ctx, sq.Select(eventColumns...).From("selection_events").OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("query selection events: %w", err)
	}
	defer rows.Close()

	var out []types.SelectionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateEvent is a compare-and-set on status and version.
func (s *SQLite) UpdateEvent(ctx context.Context, e types.SelectionEvent) error {
	criteria, competitors, err := encodeEvent(e)
	if err != nil {
		return err
	}

	res, err := s.exec(ctx, sq.Update("selection_events").
		Set("name", e.Name).
		Set("type", e.Type).
		Set("status", string(e.Status)).
		Set("criteria", criteria).
		Set("competitors", competitors).
		Set("winner_id", e.WinnerID).
		Set("winner_justification", e.WinnerJustification).
		Set("closed_at", e.ClosedAt).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": e.ID, "status": string(types.StatusAbierto), "version": e.Version}))
	if err != nil {
		return fmt.Errorf("update selection event %s: %w", e.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	found, err := s.exists(ctx, "selection_events", "id", e.ID)
	if err != nil {
		return err
	}
	if !found {
		return types.NotFound("selection event", e.ID)
	}
	return types.Stale("selection event", e.ID, "event is closed or was modified concurrently")
}

func encodeEvent(e types.SelectionEvent) (string, string, error) {
	criteria := e.Criteria
	if criteria == nil {
		criteria = []types.Criterion{}
	}
	competitors := e.Competitors
	if competitors == nil {
		competitors = []types.Competitor{}
	}

	c1, err := encodeJSON(criteria)
	if err != nil {
		return "", "", err
	}
	c2, err := encodeJSON(competitors)
	if err != nil {
		return "", "", err
	}
	return c1, c2, nil
}

func scanEvent(r rowScanner) (types.SelectionEvent, error) {
	var (
		e      types.SelectionEvent
		status string
		closed sql.NullTime

		criteria, competitors string
	)
	err := r.Scan(
		&e.ID, &e.Name, &e.Type, &status, &criteria, &competitors, &e.WinnerID,
		&e.WinnerJustification, &closed, &e.Version, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan selection event: %w", err)
	}

	e.Status = types.SelectionStatus(status)
	if err := decodeJSON(criteria, &e.Criteria); err != nil {
		return e, err
	}
	if err := decodeJSON(competitors, &e.Competitors); err != nil {
		return e, err
	}
	if closed.Valid {
		t := closed.Time
		e.ClosedAt = &t
	}
	return e, nil
}
