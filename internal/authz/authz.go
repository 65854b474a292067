// Package authz decides whether an actor may perform a workflow action.
// Authentication happens elsewhere; this package only sees the resolved
// actor and its role.
package authz

import (
	"github.com/dotcommander/provscore/internal/types"
)

// Role is the coarse permission group of an actor.
type Role string

// Roles.
const (
	RoleAdmin     Role = "admin"
	RoleEvaluator Role = "evaluator"
	RoleProvider  Role = "provider"
	RoleViewer    Role = "viewer"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleEvaluator, RoleProvider, RoleViewer:
		return r, true
	}
	return "", false
}

// Actor is the caller of an operation. ProviderID links provider users to
// the supplier they represent.
type Actor struct {
	ID         string
	Role       Role
	ProviderID string
}

// Action names a guarded operation.
type Action string

// Guarded actions.
const (
	ActionManageProviders  Action = "manage providers"
	ActionSetCriticality   Action = "set provider criticality"
	ActionSetWeights       Action = "set category weights"
	ActionCreateEvaluation Action = "create evaluations"
	ActionDeleteEvaluation Action = "delete evaluations"
	ActionSubmitCommitment Action = "submit improvement commitments"
	ActionManageSelection  Action = "manage selection events"
	ActionConfirmWinner    Action = "confirm selection winners"
	ActionNotify           Action = "send notifications"
)

// Resource is the target of an action. OwnerProviderID is set for records
// that belong to one provider.
type Resource struct {
	Kind            string
	ID              string
	OwnerProviderID string
}

// Authorizer is the collaborator every write operation consults.
type Authorizer interface {
	Authorize(actor Actor, action Action, resource Resource) error
}

// RolePolicy is the default role table.
type RolePolicy struct{}

var _ Authorizer = RolePolicy{}

var evaluatorActions = map[Action]bool{
	ActionManageProviders:  true,
	ActionCreateEvaluation: true,
	ActionManageSelection:  true,
	ActionNotify:           true,
}

// Authorize returns a ForbiddenError when the role does not allow action.
// Providers may only submit commitments on their own evaluations.
func (RolePolicy) Authorize(actor Actor, action Action, resource Resource) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleEvaluator:
		if evaluatorActions[action] {
			return nil
		}
	case RoleProvider:
		if action == ActionSubmitCommitment && actor.ProviderID != "" && actor.ProviderID == resource.OwnerProviderID {
			return nil
		}
	}
	return forbidden(actor, action)
}

// AllowAll authorizes everything. It is meant for tests and single-user
// setups.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(Actor, Action, Resource) error { return nil }

func forbidden(actor Actor, action Action) error {
	name := actor.ID
	if name == "" {
		name = "anonymous"
	}
	if actor.Role != "" {
		name += " (" + string(actor.Role) + ")"
	}
	return &types.ForbiddenError{Actor: name, Action: string(action)}
}
