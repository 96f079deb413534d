package common

import (
	"fmt"
	"strconv"
)

// UserID identifies a messaging-platform account. Telegram hands these out as
// stable 64-bit integers; the chat ID of a private conversation equals the
// user ID.
type UserID int64

// String returns the decimal representation of the user ID
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Suffix returns the trailing n digits of the ID, used to build
// human-readable child labels
func (id UserID) Suffix(n int) string {
	s := id.String()
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ParseUserID parses a decimal user ID string
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(v), nil
}

// Role distinguishes the two kinds of accounts. A role never changes after
// first assignment.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleParent, RoleChild:
		return true
	default:
		return false
	}
}

// TaskStatus represents the status of a chore on the child side
type TaskStatus string

const (
	TaskStatusActive TaskStatus = "active"
	TaskStatusDone   TaskStatus = "done"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// Common error types

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

type InternalError struct {
	Message string
	Cause   error
}

func (e InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e InternalError) Unwrap() error {
	return e.Cause
}
