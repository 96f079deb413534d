package family

import (
	"fmt"

	"chorebot-api/internal/common"
)

// TaskCatalog is the fixed set of chores a parent can hand out. Labels double
// as menu button texts.
var TaskCatalog = []string{
	"Застелити ліжко",
	"Помити чашку",
	"Почистити зуби",
}

// DefaultReward is credited to the parent-side task record on assignment.
const DefaultReward = 20

// IsCatalogTask reports whether the label names a chore from the catalog.
func IsCatalogTask(label string) bool {
	for _, t := range TaskCatalog {
		if t == label {
			return true
		}
	}
	return false
}

// ParentTask is the parent-side record of an assigned chore.
//
// ParentTask and ChildTask deliberately use different shapes for the same
// label key space; the store keeps them separate per role and they are never
// unified.
type ParentTask struct {
	Reward int  `json:"reward"`
	Active bool `json:"active"`
}

// ChildTask is the child-side record of an assigned chore.
type ChildTask struct {
	Status common.TaskStatus `json:"status"`
}

// ParentRecord holds the fields that only exist on a parent account.
type ParentRecord struct {
	// Invite is the currently shareable code; rotating it supersedes the
	// previous one but does not invalidate its registry entry.
	Invite   string                `json:"invite"`
	Children []common.UserID       `json:"children"`
	Tasks    map[string]ParentTask `json:"tasks"`
}

// ChildRecord holds the fields that only exist on a child account.
type ChildRecord struct {
	// ParentID is nil after the parent removed this child.
	ParentID *common.UserID       `json:"parent,omitempty"`
	Name     string               `json:"name,omitempty"`
	Tasks    map[string]ChildTask `json:"tasks"`
}

// User is one messaging-platform account. Exactly one of Parent/Child is set,
// matching Role; the repository enforces this shape on load and store.
type User struct {
	ID     common.UserID
	Role   common.Role
	Parent *ParentRecord
	Child  *ChildRecord
}

// NewParent creates a parent user with a fresh invite code and empty family.
func NewParent(id common.UserID, invite string) *User {
	return &User{
		ID:   id,
		Role: common.RoleParent,
		Parent: &ParentRecord{
			Invite:   invite,
			Children: []common.UserID{},
			Tasks:    map[string]ParentTask{},
		},
	}
}

// NewChild creates a child user linked to the given parent.
func NewChild(id, parentID common.UserID) *User {
	pid := parentID
	return &User{
		ID:   id,
		Role: common.RoleChild,
		Child: &ChildRecord{
			ParentID: &pid,
			Tasks:    map[string]ChildTask{},
		},
	}
}

// Validate checks the role/record pairing.
func (u *User) Validate() error {
	if !u.Role.IsValid() {
		return common.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}
	switch u.Role {
	case common.RoleParent:
		if u.Parent == nil || u.Child != nil {
			return common.ValidationError{Field: "record", Message: "parent user must carry exactly a parent record"}
		}
	case common.RoleChild:
		if u.Child == nil || u.Parent != nil {
			return common.ValidationError{Field: "record", Message: "child user must carry exactly a child record"}
		}
	}
	return nil
}

// HasChild reports whether the parent currently lists the given child.
func (p *ParentRecord) HasChild(childID common.UserID) bool {
	for _, id := range p.Children {
		if id == childID {
			return true
		}
	}
	return false
}

// Invite is an ephemeral pairing token mapping a code to its issuing parent.
// Codes are never deleted; re-registering a code overwrites the mapping.
type Invite struct {
	Code     string
	ParentID common.UserID
}

// ChildLabel renders the human-readable menu label for a child, falling back
// to the ID suffix when the child has not set a name yet.
func ChildLabel(child *User) string {
	name := ""
	if child != nil && child.Child != nil {
		name = child.Child.Name
	}
	if name == "" {
		name = child.ID.Suffix(6)
	}
	return fmt.Sprintf("%s (%s)", name, child.ID.Suffix(6))
}
