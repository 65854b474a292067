package weights

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/types"
)

var (
	admin     = authz.Actor{ID: "ana", Role: authz.RoleAdmin}
	evaluator = authz.Actor{ID: "eva", Role: authz.RoleEvaluator}
	fixedNow  = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T) (*Service, *store.SQLite) {
	t.Helper()
	v := cue.NewValidator()
	require.NoError(t, v.LoadSchemas())

	cat, err := catalog.Default(v)
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "weights.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(cat, st, authz.RolePolicy{}, v, nil)
	svc.Now = func() time.Time { return fixedNow }
	return svc, st
}

func TestSetWeights(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	o, err := svc.SetWeights(ctx, admin, "productos", map[string]float64{
		"calidad": 40, "entrega": 20, "precio": 20, "documentacion": 10, "atencion": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana", o.UpdatedBy)
	assert.True(t, o.UpdatedAt.Equal(fixedNow))

	got, err := svc.Get(ctx, "productos")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 40, got.Weights["calidad"], 1e-9)
}

func TestSetWeightsRejectsInvalidSets(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   authz.Actor
		cat     string
		weights map[string]float64
		check   func(error) bool
	}{
		{"sum 99", admin, "productos", map[string]float64{"calidad": 50, "entrega": 49}, types.IsConfiguration},
		{"sum 101", admin, "productos", map[string]float64{"calidad": 51, "entrega": 50}, types.IsConfiguration},
		{"negative weight", admin, "productos", map[string]float64{"calidad": 110, "entrega": -10}, types.IsConfiguration},
		{"unknown criterion", admin, "productos", map[string]float64{"calidad": 50, "sabor": 50}, types.IsConfiguration},
		{"unknown category", admin, "obras", map[string]float64{"calidad": 100}, types.IsNotFound},
		{"not an admin", evaluator, "productos", map[string]float64{"calidad": 100}, types.IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.SetWeights(ctx, tt.actor, tt.cat, tt.weights)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)

			if tt.cat == "productos" {
				got, err := svc.Get(ctx, "productos")
				require.NoError(t, err)
				assert.Nil(t, got, "invalid weights must not be persisted")
			}
		})
	}
}

func TestSetWeightsWithinTolerance(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SetWeights(context.Background(), admin, "productos", map[string]float64{
		"calidad": 33.333, "entrega": 33.333, "precio": 33.334,
	})
	assert.NoError(t, err)
}

func TestActiveWeights(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SetWeights(ctx, admin, "productos", map[string]float64{"calidad": 60, "entrega": 40})
	require.NoError(t, err)

	normal := types.Provider{ID: "p1", CategoryType: "productos", Criticality: types.NoCritico}
	got, err := svc.ActiveWeights(ctx, normal)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got[0].Weight, 1e-9)
	assert.InDelta(t, 0.0, got[4].Weight, 1e-9)

	critical := normal
	critical.Criticality = types.Critico
	got, err = svc.ActiveWeights(ctx, critical)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, got[0].Weight, 1e-9)

	unassigned := normal
	unassigned.Criticality = types.Unassigned
	got, err = svc.ActiveWeights(ctx, unassigned)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got[0].Weight, 1e-9)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SetWeights(ctx, admin, "servicios", map[string]float64{"calidad_servicio": 100})
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, admin, "servicios"))

	got, err := svc.Get(ctx, "servicios")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, types.IsNotFound(svc.Reset(ctx, admin, "servicios")))
	assert.True(t, types.IsForbidden(svc.Reset(ctx, evaluator, "servicios")))
}

func TestImportDir(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "weights"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights", "productos.yaml"),
		[]byte("categoryType: productos\nweights:\n  calidad: 70\n  entrega: 30\n"), 0o644))

	applied, err := svc.ImportDir(ctx, admin, dir)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.InDelta(t, 70, applied[0].Weights["calidad"], 1e-9)
}

func TestImportRejectsSchemaViolation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Import(context.Background(), admin, "bad.yaml", []byte("categoryType: productos\nweights:\n  calidad: 150\n"))
	require.Error(t, err)
	assert.True(t, types.IsConfiguration(err))
}
