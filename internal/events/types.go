package events

import (
	"time"

	"chorebot-api/internal/common"

	"github.com/google/uuid"
)

// Event represents the base event structure with common fields
type Event struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEvent creates a new base event with generated correlation ID
func NewEvent() Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
	}
}

// ChildLinked is published when a child redeems an invite code and joins a
// family.
type ChildLinked struct {
	Event
	ChildID  common.UserID `json:"child_id"`
	ParentID common.UserID `json:"parent_id"`
}

// ChildNamed is published when a freshly linked child records a display name.
type ChildNamed struct {
	Event
	ChildID  common.UserID `json:"child_id"`
	ParentID common.UserID `json:"parent_id"`
	Name     string        `json:"name"`
}

// TaskAssigned is published once per child a task was assigned to.
type TaskAssigned struct {
	Event
	ChildID  common.UserID `json:"child_id"`
	ParentID common.UserID `json:"parent_id"`
	Label    string        `json:"label"`
}

// ChildRemoved is published when a parent unlinks a child.
type ChildRemoved struct {
	Event
	ChildID  common.UserID `json:"child_id"`
	ParentID common.UserID `json:"parent_id"`
}

// PhotoVerified is published after a child's proof photo has been checked,
// regardless of the verdict.
type PhotoVerified struct {
	Event
	ChildID   common.UserID `json:"child_id"`
	ParentID  common.UserID `json:"parent_id"`
	FromToday bool          `json:"from_today"`
	Summary   string        `json:"summary"`
}

// BillCreated is published after the billing pipeline produced an
// invoice/act pair.
type BillCreated struct {
	Event
	ChatID  int64  `json:"chat_id"`
	Message string `json:"message"`
}

// Event topics constants
const (
	TopicChildLinked   = "family.child_linked"
	TopicChildNamed    = "family.child_named"
	TopicTaskAssigned  = "family.task_assigned"
	TopicChildRemoved  = "family.child_removed"
	TopicPhotoVerified = "family.photo_verified"
	TopicBillCreated   = "billing.bill_created"
)
