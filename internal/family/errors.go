package family

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the family service and repositories
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteOrphaned means the invite resolves to a user that no longer
	// is (or never was) a parent.
	ErrInviteOrphaned = errors.New("invite references a missing or non-parent user")
	ErrNotParent      = errors.New("user is not a parent")
	// ErrRoleConflict guards the role-immutability invariant: a user keeps
	// the role picked on first registration.
	ErrRoleConflict = errors.New("user already registered with a different role")
	ErrNotChild       = errors.New("user is not a child")
	ErrNoChildren     = errors.New("parent has no linked children")
	// ErrUnknownSelection is returned when a menu reply does not match the
	// label map captured when the flow started; callers re-prompt.
	ErrUnknownSelection = errors.New("selection does not match any offered option")
	ErrUnknownTask      = errors.New("task label is not in the catalog")
	ErrNoFlow           = errors.New("no multi-step flow in progress")
)

// RepositoryError wraps store failures with the attempted operation.
type RepositoryError struct {
	Operation string
	Cause     error
}

func (e RepositoryError) Error() string {
	return fmt.Sprintf("repository operation '%s' failed: %v", e.Operation, e.Cause)
}

func (e RepositoryError) Unwrap() error {
	return e.Cause
}

// WrapRepositoryError wraps a store error unless it is one of the not-found
// sentinels, which pass through for callers to branch on.
func WrapRepositoryError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInviteNotFound) {
		return err
	}
	return RepositoryError{Operation: operation, Cause: err}
}
