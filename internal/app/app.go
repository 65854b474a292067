// Package app wires configuration, storage and notification into the
// domain services used by the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/comparison"
	"github.com/dotcommander/provscore/internal/config"
	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/notify"
	"github.com/dotcommander/provscore/internal/provider"
	"github.com/dotcommander/provscore/internal/selection"
	"github.com/dotcommander/provscore/internal/store"
	"github.com/dotcommander/provscore/internal/weights"
)

// App holds the services of one CLI invocation.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *store.SQLite
	Validator *cue.Validator
	Catalog   *catalog.Catalog

	Providers   *provider.Service
	Weights     *weights.Service
	Evaluations *evaluation.Service
	Selection   *selection.Service
	Comparison  *comparison.Service
}

// New opens the store, loads schemas and the catalog, and builds every
// service. Close must be called when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	v := cue.NewValidator()
	if err := v.LoadSchemas(); err != nil {
		return nil, fmt.Errorf("error loading schemas: %w", err)
	}

	cat, err := catalog.Load(v, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "path", cfg.DBPath, "categories", len(cat.Types()))

	notifier, err := NewNotifier(cfg.Notify, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	dispatcher := notify.NewDispatcher(notifier, logger)

	var az authz.Authorizer = authz.RolePolicy{}

	w := weights.NewService(cat, st, az, v, logger)

	ev := evaluation.NewService(st, w, az, dispatcher, logger)
	ev.AdminChannel = cfg.Notify.AdminChannel

	sel := selection.NewService(st, cat, az, dispatcher, logger)
	sel.RegistrationURL = cfg.Notify.RegistrationURL

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       st,
		Validator:   v,
		Catalog:     cat,
		Providers:   provider.NewService(cat, st, az, logger),
		Weights:     w,
		Evaluations: ev,
		Selection:   sel,
		Comparison:  comparison.NewService(cat, st, az, dispatcher, logger),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewNotifier builds the notifier selected by cfg.Driver. The none driver
// returns a nil Notifier, which the dispatcher treats as a no-op.
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.Driver {
	case config.DriverSlack:
		return notify.NewSlackNotifier(cfg.SlackToken, cfg.DefaultChannel), nil
	case config.DriverLog, "":
		return notify.NewLogNotifier(logger.With("component", "notifications")), nil
	case config.DriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}
