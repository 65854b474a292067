// Package notify delivers workflow notifications. Delivery is best-effort:
// a failed notification is logged and never rolls back the state change
// that triggered it.
package notify

import (
	"context"
	"log/slog"

	"github.com/dotcommander/provscore/internal/types"
)

// Kind identifies the workflow event being announced.
type Kind string

// Notification kinds.
const (
	KindCommitmentSubmitted Kind = "commitment_submitted"
	KindEvaluationFailed    Kind = "evaluation_failed"
	KindWinnerSelected      Kind = "winner_selected"
	KindProviderAtRisk      Kind = "provider_at_risk"
)

// Field is a labelled value rendered under the notification text.
type Field struct {
	Name  string
	Value string
}

// Notification is one message. Channel is optional; notifiers fall back to
// their default destination.
type Notification struct {
	Kind    Kind
	Channel string
	Title   string
	Text    string
	Fields  []Field
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher wraps a Notifier so failures are logged as NotificationError.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewDispatcher returns a Dispatcher. A nil notifier makes Send a no-op.
func NewDispatcher(n Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{notifier: n, logger: logger.With("component", "notify")}
}

// Send delivers n. The returned error is already logged; workflow callers
// ignore it and explicit resends surface it.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	if d == nil || d.notifier == nil {
		return nil
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		nerr := &types.NotificationError{Kind: string(n.Kind), Err: err}
		d.logger.Warn("notification failed", "kind", n.Kind, "channel", n.Channel, "error", err)
		return nerr
	}
	d.logger.Debug("notification sent", "kind", n.Kind, "channel", n.Channel)
	return nil
}

// LogNotifier writes notifications to the log instead of a chat service.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	attrs := []any{"kind", n.Kind, "title", n.Title}
	if n.Channel != "" {
		attrs = append(attrs, "channel", n.Channel)
	}
	for _, f := range n.Fields {
		attrs = append(attrs, f.Name, f.Value)
	}
	l.logger.Info(n.Text, attrs...)
	return nil
}
