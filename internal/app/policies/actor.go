package policies

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrForbidden       = errors.New("policies: forbidden")
	ErrUnauthenticated = errors.New("policies: caller identity required")
)

// Actor is the caller as resolved by the identity collaborator. The engine
// trusts it as input and never derives privilege on its own.
type Actor struct {
	UserID      string
	CommunityID string
	UnitIDs     []string
	Privileged  bool
}

func (a Actor) Validate() error {
	if strings.TrimSpace(a.UserID) == "" || strings.TrimSpace(a.CommunityID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func (a Actor) HasUnit(unitID string) bool {
	for _, id := range a.UnitIDs {
		if id == unitID {
			return true
		}
	}
	return false
}

// CanActForUnit allows residents to act for their own units and privileged
// actors for any unit.
func (a Actor) CanActForUnit(unitID string) bool {
	return a.Privileged || a.HasUnit(unitID)
}

// Guarded is implemented by commands and queries that carry their caller.
type Guarded interface {
	Caller() Actor
	RequiresPrivilege() bool
}

// RoleAuthorizer rejects anonymous callers and unprivileged callers of
// privileged operations. Messages that are not Guarded pass through.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	guarded, ok := message.(Guarded)
	if !ok {
		return nil
	}
	actor := guarded.Caller()
	if err := actor.Validate(); err != nil {
		return err
	}
	if guarded.RequiresPrivilege() && !actor.Privileged {
		return ErrForbidden
	}
	return nil
}
