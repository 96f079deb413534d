package family

import "chorebot-api/internal/common"

// UserRepository persists user records keyed by user ID. Get/Save are
// idempotent and last-write-wins.
//
// Update is a read-modify-write without any transaction or row lock:
// concurrent updates for the same user can lose one side's effect. This is a
// known, inherited hazard, not a supported consistency level.
type UserRepository interface {
	Get(id common.UserID) (*User, error)
	Save(user *User) error
	Update(id common.UserID, mutate func(*User) error) error
}

// InviteRepository persists the invite-code registry. Put overwrites any
// existing mapping for the code; codes are never deleted and stay redeemable
// after use.
type InviteRepository interface {
	Get(code string) (*Invite, error)
	Put(code string, parentID common.UserID) error
}
