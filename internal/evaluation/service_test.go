package evaluation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

var (
	admin     = authz.Actor{ID: "ana", Role: authz.RoleAdmin}
	evaluator = authz.Actor{ID: "eva", Role: authz.RoleEvaluator}
	owner     = authz.Actor{ID: "p1-user", Role: authz.RoleProvider, ProviderID: "p1"}
	stranger  = authz.Actor{ID: "p2-user", Role: authz.RoleProvider, ProviderID: "p2"}
	created   = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
)

// twoCriteria resolves a fixed a/b weight set, reinforced on b for critical
// providers.
type twoCriteria struct{}

func (twoCriteria) ActiveWeightsFor(_ context.Context, categoryType string, c types.Criticality) ([]types.WeightedCriterion, error) {
	if categoryType != "productos" {
		return nil, types.NotFound("category type", categoryType)
	}
	if c.IsCritical() {
		return []types.WeightedCriterion{{ID: "a", Label: "A", Weight: 0.3}, {ID: "b", Label: "B", Weight: 0.7}}, nil
	}
	return []types.WeightedCriterion{{ID: "a", Label: "A", Weight: 0.6}, {ID: "b", Label: "B", Weight: 0.4}}, nil
}

type recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Kind
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	svc   *Service
	store *store.SQLite
	sent  *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "evaluations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	for _, p := range []types.Provider{
		{ID: "p1", Name: "Lácteos del Sur", CategoryType: "productos", Criticality: types.NoCritico, SlackChannel: "#p1", CreatedAt: created},
		{ID: "p2", Name: "Envases Norte", CategoryType: "productos", Criticality: types.Critico, CreatedAt: created},
	} {
		require.NoError(t, st.CreateProvider(ctx, p))
	}

	rec := &recorder{}
	svc := NewService(st, twoCriteria{}, authz.RolePolicy{}, notify.NewDispatcher(rec, nil), nil)
	svc.AdminChannel = "#calidad"
	svc.Now = func() time.Time { return created }
	n := 0
	svc.NewID = func() string {
		n++
		return "e" + string(rune('0'+n))
	}
	return fixture{svc: svc, store: st, sent: rec}
}

func TestCreateComputesAndStoresTotal(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Create(context.Background(), evaluator, CreateInput{
		ProviderID: "p1",
		Scores:     map[string]int{"a": 5, "b": 3},
		Comments:   "  entrega puntual  ",
	})
	require.NoError(t, err)
	assert.True(t, rec.TotalScore.Equal(decimal.RequireFromString("4.2")), "got %s", rec.TotalScore)
	assert.Equal(t, "productos", rec.EvaluationType)
	assert.Equal(t, "entrega puntual", rec.Comments)
	assert.Equal(t, "eva", rec.EvaluatorID)
	assert.Equal(t, StateNoRemediationNeeded, StateOf(rec))
	assert.Empty(t, f.sent.kinds(), "no alert above the threshold")

	stored, err := f.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalScore.Equal(rec.TotalScore))
	assert.Equal(t, rec.Criteria, stored.Criteria)
}

func TestCreateUsesCriticalWeights(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Create(context.Background(), evaluator, CreateInput{
		ProviderID: "p2",
		Scores:     map[string]int{"a": 5, "b": 3},
	})
	require.NoError(t, err)
	// 5*0.3 + 3*0.7
	assert.True(t, rec.TotalScore.Equal(decimal.RequireFromString("3.6")), "got %s", rec.TotalScore)
	assert.Equal(t, types.Critico, rec.Criticality)
}

func TestCriticalityChangeDoesNotRewriteHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.Create(ctx, evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 5, "b": 3}})
	require.NoError(t, err)

	require.NoError(t, f.store.SetCriticality(ctx, "p1", types.Critico))

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalScore.Equal(decimal.RequireFromString("4.2")))
	assert.Equal(t, types.NoCritico, stored.Criticality)
}

func TestCreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		actor authz.Actor
		in    CreateInput
		check func(error) bool
	}{
		{"unknown provider", evaluator, CreateInput{ProviderID: "p9", Scores: map[string]int{"a": 3}}, types.IsNotFound},
		{"unknown category", evaluator, CreateInput{ProviderID: "p1", EvaluationType: "obras", Scores: map[string]int{"a": 3}}, types.IsNotFound},
		{"score out of range", evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 6}}, types.IsValidation},
		{"score zero", evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 0}}, types.IsValidation},
		{"unknown criterion", evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"z": 3}}, types.IsValidation},
		{"no scores", evaluator, CreateInput{ProviderID: "p1"}, types.IsValidation},
		{"provider cannot evaluate", owner, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 3}}, types.IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Create(context.Background(), tt.actor, tt.in)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestCreateBelowThresholdNotifiesProvider(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Create(context.Background(), evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 3, "b": 3}})
	require.NoError(t, err)
	assert.Equal(t, StatePendingCommitment, StateOf(rec))

	require.Len(t, f.sent.sent, 1)
	assert.Equal(t, notify.KindEvaluationFailed, f.sent.sent[0].Kind)
	assert.Equal(t, "#p1", f.sent.sent[0].Channel)
}

func TestCreateSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.sent.err = errors.New("slack down")

	rec, err := f.svc.Create(context.Background(), evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 1, "b": 1}})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), rec.ID)
	assert.NoError(t, err)
}

// pending creates an evaluation at 3.2 where only a is below the
// per-criterion bar.
func pending(t *testing.T, f fixture) types.EvaluationRecord {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 2, "b": 5}})
	require.NoError(t, err)
	require.Equal(t, StatePendingCommitment, StateOf(rec))
	require.Equal(t, []string{"a"}, RequiredCommitments(rec))
	return rec
}

func TestSubmitCommitment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := pending(t, f)

	got, err := f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{"a": "  Revisión de lotes  "})
	require.NoError(t, err)
	assert.Equal(t, StateCommitmentSubmitted, StateOf(got))
	assert.Equal(t, "Revisión de lotes", got.ImprovementCommitment)
	require.NotNil(t, got.CommitmentSubmittedAt)
	assert.True(t, got.CommitmentSubmittedAt.Equal(created))

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "Revisión de lotes"}, stored.ImprovementCommitments)

	assert.Contains(t, f.sent.kinds(), notify.KindCommitmentSubmitted)
	last := f.sent.sent[len(f.sent.sent)-1]
	assert.Equal(t, "#calidad", last.Channel)
}

func TestSubmitCommitmentMissingNamesCriteria(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := pending(t, f)

	_, err := f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{})
	require.Error(t, err)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"a"}, verr.Missing)

	_, err = f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{"a": "   "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"a"}, verr.Missing)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CommitmentSubmittedAt, "rejected submissions must not persist anything")
}

func TestSubmitCommitmentRejectsUnknownCriteria(t *testing.T) {
	f := newFixture(t)
	rec := pending(t, f)

	_, err := f.svc.SubmitCommitment(context.Background(), owner, rec.ID, map[string]string{"a": "x", "zz": "y"})
	assert.True(t, types.IsValidation(err))
}

func TestSubmitCommitmentTwiceIsStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := pending(t, f)

	_, err := f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{"a": "plan"})
	require.NoError(t, err)

	for _, input := range []map[string]string{{"a": "otro plan"}, {}} {
		_, err = f.svc.SubmitCommitment(ctx, owner, rec.ID, input)
		assert.True(t, types.IsStale(err), "got %v", err)
	}
}

func TestSubmitCommitmentNotRequired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.Create(ctx, evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 5, "b": 5}})
	require.NoError(t, err)

	_, err = f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{"a": "x"})
	assert.True(t, types.IsStale(err))
}

func TestSubmitCommitmentAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := pending(t, f)

	_, err := f.svc.SubmitCommitment(ctx, stranger, rec.ID, map[string]string{"a": "x"})
	assert.True(t, types.IsForbidden(err))

	_, err = f.svc.SubmitCommitment(ctx, admin, rec.ID, map[string]string{"a": "x"})
	assert.NoError(t, err)

	_, err = f.svc.SubmitCommitment(ctx, admin, "missing", map[string]string{"a": "x"})
	assert.True(t, types.IsNotFound(err))
}

func TestSubmitCommitmentConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := pending(t, f)

	const callers = 6
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitCommitment(ctx, owner, rec.ID, map[string]string{"a": "plan"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, types.IsStale(err), "got %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.Create(ctx, evaluator, CreateInput{ProviderID: "p1", Scores: map[string]int{"a": 4, "b": 4}})
	require.NoError(t, err)

	list, err := f.svc.ListForProvider(ctx, "p1", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListForProvider(ctx, "p9", "")
	assert.True(t, types.IsNotFound(err))

	assert.True(t, types.IsForbidden(f.svc.Delete(ctx, evaluator, rec.ID)))
	require.NoError(t, f.svc.Delete(ctx, admin, rec.ID))
	assert.True(t, types.IsNotFound(f.svc.Delete(ctx, admin, rec.ID)))
}
