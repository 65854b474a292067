package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCriticality(t *testing.T) {
	tests := []struct {
		in     string
		want   Criticality
		wantOK bool
	}{
		{"Critico", Critico, true},
		{"Crítico", Critico, true},
		{"NoCritico", NoCritico, true},
		{"", Unassigned, true},
		{"Unassigned", Unassigned, true},
		{"maybe", Unassigned, false},
	}

	for _, tt := range tests {
		got, ok := ParseCriticality(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseCriticality(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseCriticality(%q)", tt.in)
	}
}

func TestCriticalityLabels(t *testing.T) {
	assert.True(t, Critico.IsCritical())
	assert.False(t, Unassigned.IsCritical())
	assert.Equal(t, "No Crítico", NoCritico.String())
	assert.Equal(t, "Sin asignar", Unassigned.String())
}

func TestErrorHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", Stale("evaluation", "e1", "commitment already submitted"))
	assert.True(t, IsStale(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.EqualError(t, wrapped, "submit: evaluation e1: commitment already submitted")

	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NotFound("provider", "p1"))))
	assert.EqualError(t, NotFound("provider", "p1"), `provider "p1" not found`)

	assert.True(t, IsConfiguration(&ConfigurationError{Message: "sum"}))
	assert.True(t, IsForbidden(&ForbiddenError{Actor: "a", Action: "b"}))
}

func TestValidationErrorListsMissing(t *testing.T) {
	err := &ValidationError{Message: "missing improvement commitments", Missing: []string{"calidad", "entrega"}}
	assert.EqualError(t, err, "validation error: missing improvement commitments: calidad, entrega")
	assert.True(t, IsValidation(err))
}

func TestNotificationErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := &NotificationError{Kind: "winner_selected", Err: cause}
	assert.ErrorIs(t, err, cause)
}

func TestSelectionEventHelpers(t *testing.T) {
	e := SelectionEvent{
		Status:      StatusAbierto,
		Competitors: []Competitor{{ID: "c1", Name: "Acme"}},
	}
	_, ok := e.Winner()
	assert.False(t, ok)

	c, ok := e.Competitor("c1")
	assert.True(t, ok)
	c.AuditNotes = "edit in place"
	assert.Equal(t, "edit in place", e.Competitors[0].AuditNotes)

	e.WinnerID = "c1"
	e.Status = StatusCerrado
	w, ok := e.Winner()
	assert.True(t, ok)
	assert.Equal(t, "Acme", w.Name)
	assert.True(t, e.IsClosed())
}
