package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_String(t *testing.T) {
	assert.Equal(t, "123456789", UserID(123456789).String())
	assert.Equal(t, "0", UserID(0).String())
}

func TestUserID_Suffix(t *testing.T) {
	assert.Equal(t, "456789", UserID(123456789).Suffix(6))
	assert.Equal(t, "42", UserID(42).Suffix(6))
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("987654321")
	require.NoError(t, err)
	assert.Equal(t, UserID(987654321), id)

	_, err = ParseUserID("not-a-number")
	assert.Error(t, err)
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleParent.IsValid())
	assert.True(t, RoleChild.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestErrorTypes(t *testing.T) {
	ve := ValidationError{Field: "code", Message: "too short"}
	assert.Contains(t, ve.Error(), "code")
	assert.Contains(t, ve.Error(), "too short")

	nfe := NotFoundError{Resource: "User", ID: "42"}
	assert.Contains(t, nfe.Error(), "User")
	assert.Contains(t, nfe.Error(), "42")

	cause := ValidationError{Field: "x", Message: "y"}
	ie := InternalError{Message: "store failed", Cause: cause}
	assert.Contains(t, ie.Error(), "store failed")
	assert.Equal(t, cause, ie.Unwrap())
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	assert.Equal(t, start, clock.Now())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, start.Add(2*time.Hour), clock.Now())

	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock.SetTime(later)
	assert.Equal(t, later, clock.Now())
}
