package types

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a weight set that does not hold its invariants.
// It blocks the write; weights are never normalized silently.
type ConfigurationError struct {
	Scope   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Scope == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Scope, e.Message)
}

// ValidationError reports invalid caller input. Missing lists the criterion
// ids that still need a value.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Message, strings.Join(e.Missing, ", "))
}

// StaleStateError reports a write against a record in a terminal state.
type StaleStateError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Reason)
}

// NotFoundError reports a missing provider, category, evaluation or event.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotificationError wraps a failed best-effort notification.
type NotificationError struct {
	Kind string
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s failed: %v", e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// ForbiddenError reports an action the authorization collaborator refused.
type ForbiddenError struct {
	Actor  string
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s is not allowed to %s", e.Actor, e.Action)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Stale builds a StaleStateError.
func Stale(kind, id, reason string) error {
	return &StaleStateError{Kind: kind, ID: id, Reason: reason}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsStale reports whether err wraps a StaleStateError.
func IsStale(err error) bool {
	var target *StaleStateError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsForbidden reports whether err wraps a ForbiddenError.
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}
