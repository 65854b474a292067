package selection

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

var (
	admin     = authz.Actor{ID: "ana", Role: authz.RoleAdmin}
	evaluator = authz.Actor{ID: "eva", Role: authz.RoleEvaluator}
	now       = time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)
)

type recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	cat, err := catalog.Default(nil)
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "selection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rec := &recorder{}
	svc := NewService(st, cat, authz.RolePolicy{}, notify.NewDispatcher(rec, nil), nil)
	svc.Now = func() time.Time { return now }
	svc.RegistrationURL = "https://proveedores.example.com/registro"
	return svc, rec
}

// openEvent creates an event with two criteria summing to 99 and two
// scored competitors.
func openEvent(t *testing.T, svc *Service) (types.SelectionEvent, types.Competitor, types.Competitor) {
	t.Helper()
	ctx := context.Background()

	e, err := svc.CreateEvent(ctx, evaluator, "Transporte refrigerado", "servicios", false)
	require.NoError(t, err)

	_, err = svc.AddCriterion(ctx, evaluator, e.ID, types.Criterion{ID: "a", Label: "Precio", Weight: 60, Group: types.GroupFinanciero})
	require.NoError(t, err)
	_, err = svc.AddCriterion(ctx, evaluator, e.ID, types.Criterion{ID: "b", Label: "Flota", Weight: 39, Group: types.GroupTecnico})
	require.NoError(t, err)

	_, acme, err := svc.AddCompetitor(ctx, evaluator, e.ID, "Acme", "https://acme.example.com/cotizacion.pdf")
	require.NoError(t, err)
	_, beta, err := svc.AddCompetitor(ctx, evaluator, e.ID, "Beta", "")
	require.NoError(t, err)

	_, err = svc.ScoreCompetitor(ctx, evaluator, e.ID, acme.ID, map[string]int{"a": 5, "b": 3})
	require.NoError(t, err)
	e, err = svc.ScoreCompetitor(ctx, evaluator, e.ID, beta.ID, map[string]int{"a": 3, "b": 4})
	require.NoError(t, err)
	return e, acme, beta
}

func TestScoreCompetitorRecomputesTotal(t *testing.T) {
	svc, _ := newTestService(t)
	e, acme, _ := openEvent(t, svc)

	c, ok := e.Competitor(acme.ID)
	require.True(t, ok)
	// 5*0.60 + 3*0.39
	assert.True(t, c.TotalScore.Equal(decimal.RequireFromString("4.17")), "got %s", c.TotalScore)
	assert.Equal(t, 6, e.Version)
}

func TestConfirmWinnerRequiresHundred(t *testing.T) {
	ctx := context.Background()
	svc, sent := newTestService(t)
	e, acme, _ := openEvent(t, svc)

	_, err := svc.ConfirmWinner(ctx, admin, e.ID, acme.ID, "mejor precio")
	require.Error(t, err)
	assert.True(t, types.IsConfiguration(err), "got %v", err)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAbierto, got.Status)
	assert.Empty(t, sent.sent)
}

func TestConfirmWinnerClosesEvent(t *testing.T) {
	ctx := context.Background()
	svc, sent := newTestService(t)
	e, acme, beta := openEvent(t, svc)

	_, err := svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{
		{ID: "a", Label: "Precio", Weight: 60, Group: types.GroupFinanciero},
		{ID: "b", Label: "Flota", Weight: 40, Group: types.GroupTecnico},
	})
	require.NoError(t, err)

	closed, err := svc.ConfirmWinner(ctx, admin, e.ID, acme.ID, "  mejor relación costo-servicio ")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCerrado, closed.Status)
	assert.Equal(t, acme.ID, closed.WinnerID)
	assert.Equal(t, "mejor relación costo-servicio", closed.WinnerJustification)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, closed.ClosedAt.Equal(now))

	w, ok := closed.Winner()
	require.True(t, ok)
	assert.True(t, w.TotalScore.Equal(decimal.RequireFromString("4.2")), "got %s", w.TotalScore)

	require.Len(t, sent.sent, 1)
	assert.Equal(t, notify.KindWinnerSelected, sent.sent[0].Kind)

	// Every later write is stale.
	_, err = svc.ScoreCompetitor(ctx, evaluator, e.ID, beta.ID, map[string]int{"a": 5})
	assert.True(t, types.IsStale(err), "got %v", err)
	_, err = svc.AddCriterion(ctx, evaluator, e.ID, types.Criterion{ID: "c", Weight: 0})
	assert.True(t, types.IsStale(err))
	_, err = svc.ConfirmWinner(ctx, admin, e.ID, beta.ID, "cambio")
	assert.True(t, types.IsStale(err))
	_, err = svc.SetAuditNotes(ctx, evaluator, e.ID, beta.ID, "nota")
	assert.True(t, types.IsStale(err))

	stored, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, acme.ID, stored.WinnerID)
}

func TestConfirmWinnerPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e, acme, _ := openEvent(t, svc)
	_, err := svc.AddCriterion(ctx, evaluator, e.ID, types.Criterion{ID: "c", Label: "Visita", Weight: 1})
	require.NoError(t, err)

	_, err = svc.ConfirmWinner(ctx, evaluator, e.ID, acme.ID, "x")
	assert.True(t, types.IsForbidden(err))

	_, err = svc.ConfirmWinner(ctx, admin, e.ID, acme.ID, "   ")
	assert.True(t, types.IsValidation(err))

	_, err = svc.ConfirmWinner(ctx, admin, e.ID, "nobody", "x")
	assert.True(t, types.IsNotFound(err))

	_, err = svc.ConfirmWinner(ctx, admin, "missing", acme.ID, "x")
	assert.True(t, types.IsNotFound(err))
}

func TestSetCriteriaRejectsBadSum(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e, _, _ := openEvent(t, svc)

	_, err := svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{{ID: "a", Weight: 50}, {ID: "b", Weight: 49}})
	assert.True(t, types.IsConfiguration(err))

	_, err = svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{{ID: "a", Weight: 50}, {ID: "a", Weight: 50}})
	assert.True(t, types.IsConfiguration(err))

	_, err = svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{{ID: "a", Weight: 100, Group: "Marketing"}})
	assert.True(t, types.IsValidation(err))
}

func TestSetCriteriaDropsScoresOfRemovedCriteria(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e, acme, _ := openEvent(t, svc)

	e, err := svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{{ID: "a", Label: "Precio", Weight: 100}})
	require.NoError(t, err)

	c, _ := e.Competitor(acme.ID)
	assert.Equal(t, map[string]int{"a": 5}, c.Scores)
	assert.True(t, c.TotalScore.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, types.GroupPendiente, e.Criteria[0].Group)
}

func TestApplyTemplate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	e, err := svc.CreateEvent(ctx, evaluator, "Limpieza", "servicios", false)
	require.NoError(t, err)
	assert.Empty(t, e.Criteria)

	e, err = svc.ApplyTemplate(ctx, evaluator, e.ID)
	require.NoError(t, err)
	assert.Len(t, e.Criteria, 8)

	groups := GroupWeights(e.Criteria)
	assert.InDelta(t, 20, groups[types.GroupLegal], 1e-9)
	assert.InDelta(t, 35, groups[types.GroupTecnico], 1e-9)
	assert.InDelta(t, 20, groups[types.GroupOperativo], 1e-9)
	assert.InDelta(t, 15, groups[types.GroupFinanciero], 1e-9)
	assert.InDelta(t, 10, groups[types.GroupPendiente], 1e-9)

	seeded, err := svc.CreateEvent(ctx, evaluator, "Seguridad", "servicios", true)
	require.NoError(t, err)
	assert.Len(t, seeded.Criteria, 8)
}

func TestCompetitorEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e, acme, beta := openEvent(t, svc)

	_, err := svc.ScoreCompetitor(ctx, evaluator, e.ID, acme.ID, map[string]int{"a": 6})
	assert.True(t, types.IsValidation(err))
	_, err = svc.ScoreCompetitor(ctx, evaluator, e.ID, acme.ID, map[string]int{"zz": 3})
	assert.True(t, types.IsValidation(err))
	_, err = svc.ScoreCompetitor(ctx, evaluator, e.ID, "nobody", map[string]int{"a": 3})
	assert.True(t, types.IsNotFound(err))

	e, err = svc.SetAuditNotes(ctx, evaluator, e.ID, beta.ID, " visita pendiente ")
	require.NoError(t, err)
	c, _ := e.Competitor(beta.ID)
	assert.Equal(t, "visita pendiente", c.AuditNotes)

	e, err = svc.RemoveCompetitor(ctx, evaluator, e.ID, beta.ID)
	require.NoError(t, err)
	assert.Len(t, e.Competitors, 1)

	_, _, err = svc.AddCompetitor(ctx, evaluator, e.ID, "Gamma", "not a url")
	assert.True(t, types.IsValidation(err))

	e, err = svc.RemoveCriterion(ctx, evaluator, e.ID, "b")
	require.NoError(t, err)
	c, _ = e.Competitor(acme.ID)
	_, stillScored := c.Scores["b"]
	assert.False(t, stillScored)

	_, err = svc.RemoveCriterion(ctx, evaluator, e.ID, "b")
	assert.True(t, types.IsNotFound(err))
}

func TestViewerCannotEdit(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateEvent(context.Background(), authz.Actor{ID: "v", Role: authz.RoleViewer}, "X", "", false)
	assert.True(t, types.IsForbidden(err))
}

func TestResendWinnerNotification(t *testing.T) {
	ctx := context.Background()
	svc, sent := newTestService(t)
	e, acme, _ := openEvent(t, svc)

	assert.True(t, types.IsValidation(svc.ResendWinnerNotification(ctx, admin, e.ID)))

	_, err := svc.SetCriteria(ctx, evaluator, e.ID, []types.Criterion{{ID: "a", Weight: 60}, {ID: "b", Weight: 40}})
	require.NoError(t, err)
	closed, err := svc.ConfirmWinner(ctx, admin, e.ID, acme.ID, "mejor oferta")
	require.NoError(t, err)

	require.NoError(t, svc.ResendWinnerNotification(ctx, admin, e.ID))
	require.Len(t, sent.sent, 2)
	assert.Equal(t, sent.sent[0], sent.sent[1])

	var link string
	for _, f := range sent.sent[1].Fields {
		if f.Name == "Registro" {
			link = f.Value
		}
	}
	assert.Contains(t, link, "competitor="+acme.ID)

	after, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, closed.Version, after.Version)
}

func TestRanking(t *testing.T) {
	e := types.SelectionEvent{
		WinnerID: "z",
		Criteria: []types.Criterion{{ID: "a", Weight: 100}},
		Competitors: []types.Competitor{
			{ID: "x", Name: "Beta", Scores: map[string]int{"a": 4}, TotalScore: decimal.NewFromInt(4)},
			{ID: "y", Name: "Alfa", Scores: map[string]int{"a": 4}, TotalScore: decimal.NewFromInt(4)},
			{ID: "z", Name: "Gamma", Scores: map[string]int{"a": 5}, TotalScore: decimal.NewFromInt(5)},
			{ID: "w", Name: "Delta", TotalScore: decimal.Zero},
		},
	}

	got := Ranking(e)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"z", "y", "x", "w"}, []string{got[0].Competitor.ID, got[1].Competitor.ID, got[2].Competitor.ID, got[3].Competitor.ID})
	assert.Equal(t, 1, got[0].Rank)
	assert.True(t, got[0].Winner)
	assert.Equal(t, 100, got[0].Percent)
	assert.Equal(t, "Aprobado", string(got[0].Decision))
	assert.Equal(t, "No Aprobado", string(got[3].Decision))
	assert.False(t, got[3].Complete)
}
