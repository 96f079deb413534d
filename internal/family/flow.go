package family

import (
	"sync"

	"chorebot-api/internal/common"
)

// FlowAction names the parent multi-step flow a user is in the middle of.
type FlowAction string

const (
	FlowSelectChild FlowAction = "select_child"
	FlowAssignTask  FlowAction = "assign_task"
	FlowRemoveChild FlowAction = "remove_child"
)

// ParentFlow is the transient position of a parent inside a multi-step
// dialog. It lives only in process memory: a restart simply makes the parent
// start the flow over.
type ParentFlow struct {
	Action FlowAction
	// ChildID is set while assigning a task to a pre-selected child.
	ChildID common.UserID
	// Labels maps menu button labels back to child IDs for the
	// select_child and remove_child stages.
	Labels map[string]common.UserID
}

// FlowStore keeps per-user transient dialog state. Two independent slots
// exist: parent flows and the child awaiting-name flag. It is injected into
// handlers rather than referenced as package state so a persistent backing
// can be substituted without touching handler logic.
type FlowStore struct {
	mu            sync.RWMutex
	parentFlows   map[common.UserID]*ParentFlow
	awaitingNames map[common.UserID]bool
}

// NewFlowStore creates an empty flow store.
func NewFlowStore() *FlowStore {
	return &FlowStore{
		parentFlows:   make(map[common.UserID]*ParentFlow),
		awaitingNames: make(map[common.UserID]bool),
	}
}

// ParentFlow returns the parent flow for the user, if any.
func (s *FlowStore) ParentFlow(userID common.UserID) (*ParentFlow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.parentFlows[userID]
	return flow, ok
}

// SetParentFlow replaces the user's parent flow.
func (s *FlowStore) SetParentFlow(userID common.UserID, flow *ParentFlow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parentFlows[userID] = flow
}

// ClearParentFlow drops the user's parent flow and returns what was stored.
func (s *FlowStore) ClearParentFlow(userID common.UserID) (*ParentFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.parentFlows[userID]
	delete(s.parentFlows, userID)
	return flow, ok
}

// AwaitingName reports whether the child still owes a display name.
func (s *FlowStore) AwaitingName(userID common.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awaitingNames[userID]
}

// SetAwaitingName marks the child as owing a display name.
func (s *FlowStore) SetAwaitingName(userID common.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaitingNames[userID] = true
}

// ClearAwaitingName clears the awaiting-name flag.
func (s *FlowStore) ClearAwaitingName(userID common.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.awaitingNames, userID)
}
