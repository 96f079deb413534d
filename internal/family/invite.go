package family

import (
	"math/rand"
	"regexp"
)

const (
	inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// InviteCodeLength is the fixed length of pairing codes.
	InviteCodeLength = 6
)

// inviteShape matches any text that could be an invite code once upcased.
// The router uses it as a routing predicate, so it accepts lowercase input.
var inviteShape = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// GenerateInviteCode produces a 6-character uppercase alphanumeric code.
// Codes are generated independently of outstanding invites; a collision
// silently overwrites the previous registry mapping.
func GenerateInviteCode() string {
	b := make([]byte, InviteCodeLength)
	for i := range b {
		b[i] = inviteAlphabet[rand.Intn(len(inviteAlphabet))]
	}
	return string(b)
}

// LooksLikeInviteCode reports whether text has the shape of an invite code.
// Task labels could in principle share this shape; the router's declared
// ordering resolves that collision in favor of task labels.
func LooksLikeInviteCode(text string) bool {
	return inviteShape.MatchString(text)
}
