package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dotcommander/provscore/internal/types"
)

var evaluationColumns = []string{
	"id", "provider_id", "evaluation_type", "criticality", "criteria", "scores",
	"justifications", "total_score", "comments", "evaluator_id", "commitments",
	"commitment", "commitment_submitted_at", "created_at",
}

// CreateEvaluation inserts a record with its weight snapshot and total.
func (s *SQLite) CreateEvaluation(ctx context.Context, rec types.EvaluationRecord) error {
	criteria, err := encodeJSON(rec.Criteria)
	if err != nil {
		return err
	}
	scores, err := encodeJSON(rec.Scores)
	if err != nil {
		return err
	}
	justifications, err := encodeJSON(nonNilMap(rec.ScoreJustifications))
	if err != nil {
		return err
	}
	commitments, err := encodeJSON(nonNilMap(rec.ImprovementCommitments))
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, sq.Insert("evaluations").Columns(evaluationColumns...).Values(
		rec.ID, rec.ProviderID, rec.EvaluationType, string(rec.Criticality), criteria, scores,
		justifications, rec.TotalScore, rec.Comments, rec.EvaluatorID, commitments,
		rec.ImprovementCommitment, rec.CommitmentSubmittedAt, rec.CreatedAt,
	))
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", rec.ID, err)
	}
	return nil
}

// GetEvaluation loads one record.
func (s *SQLite) GetEvaluation(ctx context.Context, id string) (types.EvaluationRecord, error) {
	row, err := s.queryRow(ctx, sq.Select(evaluationColumns...).From("evaluations").Where(sq.Eq{"id": id}))
	if err != nil {
		return types.EvaluationRecord{}, err
	}
	rec, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.EvaluationRecord{}, types.NotFound("evaluation", id)
	}
	return rec, err
}

// ListEvaluations returns matching records, newest first.
func (s *SQLite) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]types.EvaluationRecord, error) {
	q := sq.Select(evaluationColumns...).From("evaluations").OrderBy("created_at DESC", "id DESC")
	if filter.ProviderID != "" {
		q = q.Where(sq.Eq{"provider_id": filter.ProviderID})
	}
	if filter.EvaluationType != "" {
		q = q.Where(sq.Eq{"evaluation_type": filter.EvaluationType})
	}
	if filter.ProviderIDs != nil {
		if len(filter.ProviderIDs) == 0 {
			return nil, nil
		}
		q = q.Where(sq.Eq{"provider_id": filter.ProviderIDs})
	}

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []types.EvaluationRecord
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SubmitCommitment guards the write with commitment_submitted_at IS NULL.
func (s *SQLite) SubmitCommitment(ctx context.Context, id string, commitments map[string]string, flat string, at time.Time) error {
	encoded, err := encodeJSON(nonNilMap(commitments))
	if err != nil {
		return err
	}

	res, err := s.exec(ctx, sq.Update("evaluations").
		Set("commitments", encoded).
		Set("commitment", flat).
		Set("commitment_submitted_at", at).
		Where(sq.Eq{"id": id, "commitment_submitted_at": nil}))
	if err != nil {
		return fmt.Errorf("update evaluation %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	found, err := s.exists(ctx, "evaluations", "id", id)
	if err != nil {
		return err
	}
	if !found {
		return types.NotFound("evaluation", id)
	}
	return types.Stale("evaluation", id, "commitment already submitted")
}

// DeleteEvaluation removes a record.
func (s *SQLite) DeleteEvaluation(ctx context.Context, id string) error {
	res, err := s.exec(ctx, sq.Delete("evaluations").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete evaluation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("evaluation", id)
	}
	return nil
}

func scanEvaluation(r rowScanner) (types.EvaluationRecord, error) {
	var (
		rec       types.EvaluationRecord
		crit      string
		submitted sql.NullTime

		criteria, scores, justifications, commitments string
	)
	err := r.Scan(
		&rec.ID, &rec.ProviderID, &rec.EvaluationType, &crit, &criteria, &scores,
		&justifications, &rec.TotalScore, &rec.Comments, &rec.EvaluatorID, &commitments,
		&rec.ImprovementCommitment, &submitted, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan evaluation: %w", err)
	}

	rec.Criticality = types.Criticality(crit)
	if err := decodeJSON(criteria, &rec.Criteria); err != nil {
		return rec, err
	}
	if err := decodeJSON(scores, &rec.Scores); err != nil {
		return rec, err
	}
	if err := decodeJSON(justifications, &rec.ScoreJustifications); err != nil {
		return rec, err
	}
	if err := decodeJSON(commitments, &rec.ImprovementCommitments); err != nil {
		return rec, err
	}
	if len(rec.ScoreJustifications) == 0 {
		rec.ScoreJustifications = nil
	}
	if len(rec.ImprovementCommitments) == 0 {
		rec.ImprovementCommitments = nil
	}
	if submitted.Valid {
		t := submitted.Time
		rec.CommitmentSubmittedAt = &t
	}
	return rec, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
