package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/config"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/logging"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath: filepath.Join(t.TempDir(), "app.db"),
		Format: "console",
		Notify: config.NotifyConfig{Driver: config.DriverNone, AdminChannel: "#compras", RegistrationURL: "https://example.com/registro"},
	}
}

func TestNewWiresServices(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, []string{"productos", "servicios"}, a.Catalog.Types())
	assert.Equal(t, "#compras", a.Evaluations.AdminChannel)
	assert.Equal(t, "https://example.com/registro", a.Selection.RegistrationURL)

	admin := authz.Actor{ID: "root", Role: authz.RoleAdmin}
	p, err := a.Providers.Create(ctx, admin, types.Provider{Name: "Acme", CategoryType: "productos", Criticality: types.Critico})
	require.NoError(t, err)

	got, err := a.Providers.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	report, err := a.Comparison.Compare(ctx, "productos")
	require.NoError(t, err)
	require.Len(t, report.Providers, 1)
	assert.False(t, report.Providers[0].AtRisk())
}

func TestWeightEditKeepsStoredTotals(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	admin := authz.Actor{ID: "root", Role: authz.RoleAdmin}
	p, err := a.Providers.Create(ctx, admin, types.Provider{Name: "Acme", CategoryType: "productos", Criticality: types.NoCritico})
	require.NoError(t, err)

	scores := map[string]int{"calidad": 2, "entrega": 4, "precio": 4, "documentacion": 4, "atencion": 4}
	before, err := a.Evaluations.Create(ctx, admin, evaluation.CreateInput{ProviderID: p.ID, Scores: scores})
	require.NoError(t, err)
	assert.Equal(t, "3.40", before.TotalScore.StringFixed(2))

	_, err = a.Weights.SetWeights(ctx, admin, "productos", map[string]float64{
		"calidad": 60, "entrega": 10, "precio": 10, "documentacion": 10, "atencion": 10,
	})
	require.NoError(t, err)

	stored, err := a.Evaluations.Get(ctx, before.ID)
	require.NoError(t, err)
	assert.True(t, before.TotalScore.Equal(stored.TotalScore), "total changed to %s", stored.TotalScore)
	assert.Equal(t, before.Criteria, stored.Criteria)
	assert.InDelta(t, 0.30, stored.Criteria[0].Weight, 1e-9)

	after, err := a.Evaluations.Create(ctx, admin, evaluation.CreateInput{ProviderID: p.ID, Scores: scores})
	require.NoError(t, err)
	assert.Equal(t, "2.80", after.TotalScore.StringFixed(2))
	assert.InDelta(t, 0.60, after.Criteria[0].Weight, 1e-9)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Driver = "pigeon"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notify driver")
}

func TestNewNotifier(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.NotifyConfig
		want   any
		isNil  bool
		hasErr bool
	}{
		{name: "log", cfg: config.NotifyConfig{Driver: config.DriverLog}, want: &notify.LogNotifier{}},
		{name: "empty driver logs", cfg: config.NotifyConfig{}, want: &notify.LogNotifier{}},
		{name: "slack", cfg: config.NotifyConfig{Driver: config.DriverSlack, SlackToken: "xoxb-test"}, want: &notify.SlackNotifier{}},
		{name: "none", cfg: config.NotifyConfig{Driver: config.DriverNone}, isNil: true},
		{name: "unknown", cfg: config.NotifyConfig{Driver: "smtp"}, hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNotifier(tt.cfg, logging.Discard())
			if tt.hasErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.isNil {
				assert.Nil(t, n)
				return
			}
			assert.IsType(t, tt.want, n)
		})
	}
}
