// Package selection runs competitive supplier-selection events: criteria
// with percentage weights, scored competitors, and a terminal winner
// decision.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

// Service implements the selection-event workflow. Every write is a
// version-guarded update that fails with StaleStateError once the event is
// closed.
type Service struct {
	store    store.SelectionStore
	catalog  *catalog.Catalog
	authz    authz.Authorizer
	notifier *notify.Dispatcher
	logger   *slog.Logger

	// RegistrationURL is linked in winner notifications.
	RegistrationURL string

	Now   func() time.Time
	NewID func() string
}

// NewService wires a Service.
func NewService(st store.SelectionStore, cat *catalog.Catalog, az authz.Authorizer, n *notify.Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    st,
		catalog:  cat,
		authz:    az,
		notifier: n,
		logger:   logger.With("component", "selection"),
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

// CreateEvent opens a new event, optionally seeded with the catalog's
// default selection criteria.
func (s *Service) CreateEvent(ctx context.Context, actor authz.Actor, name, eventType string, withTemplate bool) (types.SelectionEvent, error) {
	if err := s.authz.Authorize(actor, authz.ActionManageSelection, authz.Resource{Kind: "selection event"}); err != nil {
		return types.SelectionEvent{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.SelectionEvent{}, &types.ValidationError{Message: "event name is required"}
	}

	e := types.SelectionEvent{
		ID:        s.NewID(),
		Name:      name,
		Type:      eventType,
		Status:    types.StatusAbierto,
		CreatedAt: s.Now(),
	}
	if withTemplate {
		e.Criteria = s.catalog.SelectionTemplate()
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return types.SelectionEvent{}, err
	}
	s.logger.Info("selection event created", "id", e.ID, "name", e.Name)
	return e, nil
}

// Get loads an event.
func (s *Service) Get(ctx context.Context, id string) (types.SelectionEvent, error) {
	return s.store.GetEvent(ctx, id)
}

// List returns all events, newest first.
func (s *Service) List(ctx context.Context) ([]types.SelectionEvent, error) {
	return s.store.ListEvents(ctx)
}

// AddCriterion appends a criterion. The weight sum is not enforced here so
// criteria can be drafted one at a time; SetCriteria and ConfirmWinner
// enforce it.
func (s *Service) AddCriterion(ctx context.Context, actor authz.Actor, eventID string, c types.Criterion) (types.SelectionEvent, error) {
	c, err := normalizeCriterion(c)
	if err != nil {
		return types.SelectionEvent{}, err
	}
	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		for _, existing := range e.Criteria {
			if existing.ID == c.ID {
				return &types.ValidationError{Message: "criterion " + c.ID + " already exists"}
			}
		}
		e.Criteria = append(e.Criteria, c)
		rescore(e)
		return nil
	})
}

// RemoveCriterion drops a criterion and the competitor scores given for it.
func (s *Service) RemoveCriterion(ctx context.Context, actor authz.Actor, eventID, criterionID string) (types.SelectionEvent, error) {
	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		idx := -1
		for i, c := range e.Criteria {
			if c.ID == criterionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return types.NotFound("criterion", criterionID)
		}
		e.Criteria = append(e.Criteria[:idx], e.Criteria[idx+1:]...)
		for i := range e.Competitors {
			delete(e.Competitors[i].Scores, criterionID)
		}
		rescore(e)
		return nil
	})
}

// SetCriteria replaces the criteria list. The list must sum to 100.
func (s *Service) SetCriteria(ctx context.Context, actor authz.Actor, eventID string, criteria []types.Criterion) (types.SelectionEvent, error) {
	normalized := make([]types.Criterion, 0, len(criteria))
	for _, c := range criteria {
		n, err := normalizeCriterion(c)
		if err != nil {
			return types.SelectionEvent{}, err
		}
		normalized = append(normalized, n)
	}
	if err := scoring.ValidateCriteria("selection event "+eventID, normalized); err != nil {
		return types.SelectionEvent{}, err
	}

	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		keep := make(map[string]bool, len(normalized))
		for _, c := range normalized {
			keep[c.ID] = true
		}
		for i := range e.Competitors {
			for id := range e.Competitors[i].Scores {
				if !keep[id] {
					delete(e.Competitors[i].Scores, id)
				}
			}
		}
		e.Criteria = normalized
		rescore(e)
		return nil
	})
}

// ApplyTemplate replaces the criteria with the catalog's selection template.
func (s *Service) ApplyTemplate(ctx context.Context, actor authz.Actor, eventID string) (types.SelectionEvent, error) {
	return s.SetCriteria(ctx, actor, eventID, s.catalog.SelectionTemplate())
}

// AddCompetitor registers a candidate supplier.
func (s *Service) AddCompetitor(ctx context.Context, actor authz.Actor, eventID, name, quoteURL string) (types.SelectionEvent, types.Competitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.SelectionEvent{}, types.Competitor{}, &types.ValidationError{Message: "competitor name is required"}
	}
	if quoteURL != "" {
		if u, err := url.Parse(quoteURL); err != nil || u.Scheme == "" || u.Host == "" {
			return types.SelectionEvent{}, types.Competitor{}, &types.ValidationError{Message: "quote url must be absolute: " + quoteURL}
		}
	}

	c := types.Competitor{ID: s.NewID(), Name: name, QuoteURL: quoteURL, Scores: map[string]int{}}
	e, err := s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		e.Competitors = append(e.Competitors, c)
		return nil
	})
	return e, c, err
}

// RemoveCompetitor drops a candidate.
func (s *Service) RemoveCompetitor(ctx context.Context, actor authz.Actor, eventID, competitorID string) (types.SelectionEvent, error) {
	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		for i, c := range e.Competitors {
			if c.ID == competitorID {
				e.Competitors = append(e.Competitors[:i], e.Competitors[i+1:]...)
				return nil
			}
		}
		return types.NotFound("competitor", competitorID)
	})
}

// ScoreCompetitor merges scores into a competitor and recomputes its total.
func (s *Service) ScoreCompetitor(ctx context.Context, actor authz.Actor, eventID, competitorID string, scores map[string]int) (types.SelectionEvent, error) {
	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		c, ok := e.Competitor(competitorID)
		if !ok {
			return types.NotFound("competitor", competitorID)
		}

		known := make(map[string]bool, len(e.Criteria))
		for _, cr := range e.Criteria {
			known[cr.ID] = true
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

		if c.Scores == nil {
			c.Scores = make(map[string]int, len(scores))
		}
		for id, v := range scores {
			c.Scores[id] = v
		}
		c.TotalScore = scoring.ComputeCompetitorScore(*c, e.Criteria)
		return nil
	})
}

// SetAuditNotes records the evaluator's notes on a competitor.
func (s *Service) SetAuditNotes(ctx context.Context, actor authz.Actor, eventID, competitorID, notes string) (types.SelectionEvent, error) {
	return s.mutate(ctx, actor, authz.ActionManageSelection, eventID, func(e *types.SelectionEvent) error {
		c, ok := e.Competitor(competitorID)
		if !ok {
			return types.NotFound("competitor", competitorID)
		}
		c.AuditNotes = strings.TrimSpace(notes)
		return nil
	})
}

// ConfirmWinner closes the event with the chosen competitor. The event must
// be open, the justification non-blank and the criteria must sum to 100.
func (s *Service) ConfirmWinner(ctx context.Context, actor authz.Actor, eventID, competitorID, justification string) (types.SelectionEvent, error) {
	justification = strings.TrimSpace(justification)

	e, err := s.mutate(ctx, actor, authz.ActionConfirmWinner, eventID, func(e *types.SelectionEvent) error {
		if justification == "" {
			return &types.ValidationError{Message: "winner justification is required"}
		}
		if err := scoring.ValidateCriteria("selection event "+e.ID, e.Criteria); err != nil {
			return err
		}
		if _, ok := e.Competitor(competitorID); !ok {
			return types.NotFound("competitor", competitorID)
		}

		rescore(e)
		now := s.Now()
		e.WinnerID = competitorID
		e.WinnerJustification = justification
		e.Status = types.StatusCerrado
		e.ClosedAt = &now
		return nil
	})
	if err != nil {
		return types.SelectionEvent{}, err
	}

	s.logger.Info("winner confirmed", "event", e.ID, "competitor", competitorID, "by", actor.ID)
	_ = s.notifier.Send(ctx, s.winnerNotification(e))
	return e, nil
}

// ResendWinnerNotification sends the winner notification again. The event
// is not modified.
func (s *Service) ResendWinnerNotification(ctx context.Context, actor authz.Actor, eventID string) error {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, authz.ActionNotify, authz.Resource{Kind: "selection event", ID: eventID}); err != nil {
		return err
	}
	if !e.IsClosed() {
		return &types.ValidationError{Message: "event " + eventID + " has no winner yet"}
	}
	return s.notifier.Send(ctx, s.winnerNotification(e))
}

func (s *Service) winnerNotification(e types.SelectionEvent) notify.Notification {
	n := notify.Notification{
		Kind:  notify.KindWinnerSelected,
		Title: "Proveedor seleccionado: " + e.Name,
	}
	w, ok := e.Winner()
	if !ok {
		n.Text = "El evento fue cerrado."
		return n
	}

	n.Text = fmt.Sprintf("%s fue seleccionado con %s (%d%%).", w.Name, w.TotalScore.StringFixed(2), scoring.Percent(w.TotalScore))
	n.Fields = []notify.Field{
		{Name: "Decisión", Value: string(scoring.GetDecisionStatus(w.TotalScore))},
		{Name: "Justificación", Value: e.WinnerJustification},
	}
	if s.RegistrationURL != "" {
		n.Fields = append(n.Fields, notify.Field{Name: "Registro", Value: registrationLink(s.RegistrationURL, e.ID, w.ID)})
	}
	return n
}

// mutate loads the event, applies fn and writes it back with a
// compare-and-set on the loaded version.
func (s *Service) mutate(ctx context.Context, actor authz.Actor, action authz.Action, eventID string, fn func(*types.SelectionEvent) error) (types.SelectionEvent, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return types.SelectionEvent{}, err
	}
	if err := s.authz.Authorize(actor, action, authz.Resource{Kind: "selection event", ID: eventID}); err != nil {
		return types.SelectionEvent{}, err
	}
	if e.IsClosed() {
		return types.SelectionEvent{}, types.Stale("selection event", eventID, "event is closed")
	}
	if err := fn(&e); err != nil {
		return types.SelectionEvent{}, err
	}
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return types.SelectionEvent{}, err
	}
	e.Version++
	return e, nil
}

func normalizeCriterion(c types.Criterion) (types.Criterion, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Label = strings.TrimSpace(c.Label)
	if c.ID == "" {
		return c, &types.ValidationError{Message: "criterion id is required"}
	}
	if c.Label == "" {
		c.Label = c.ID
	}
	if c.Weight < 0 || c.Weight > 100 {
		return c, &types.ValidationError{Message: fmt.Sprintf("weight for %s must be between 0 and 100, got %g", c.ID, c.Weight)}
	}
	if c.Group == "" {
		c.Group = types.GroupPendiente
	}
	if !ValidGroup(c.Group) {
		return c, &types.ValidationError{Message: "unknown criterion group " + string(c.Group)}
	}
	return c, nil
}

func rescore(e *types.SelectionEvent) {
	for i := range e.Competitors {
		e.Competitors[i].TotalScore = scoring.ComputeCompetitorScore(e.Competitors[i], e.Criteria)
	}
}

func registrationLink(base, eventID, competitorID string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("event", eventID)
	q.Set("competitor", competitorID)
	u.RawQuery = q.Encode()
	return u.String()
}
