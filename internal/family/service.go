package family

import (
	"errors"
	"sort"
	"strings"

	"chorebot-api/internal/common"
	"chorebot-api/internal/events"

	"go.uber.org/zap"
)

// PhotoChecker classifies a proof photo against today's date. Implemented by
// the photocheck package.
type PhotoChecker interface {
	FromToday(photo []byte) (bool, string)
}

// AssignStage tells the caller what to present next after a parent pressed
// the assign-task button.
type AssignStage string

const (
	// AssignStageNoChildren means the parent has nobody to assign to.
	AssignStageNoChildren AssignStage = "no_children"
	// AssignStagePickTask means the child is resolved; present the catalog.
	AssignStagePickTask AssignStage = "pick_task"
	// AssignStagePickChild means a child has to be chosen first.
	AssignStagePickChild AssignStage = "pick_child"
)

// AssignPrompt is the service's answer to StartAssignTask.
type AssignPrompt struct {
	Stage AssignStage
	// Labels carries the menu options for the stage: task labels for
	// pick_task, child labels for pick_child.
	Labels []string
}

// TaskEntry is one line of a parent's history or a child's task list.
type TaskEntry struct {
	Label  string
	Active bool
	Status common.TaskStatus
}

// PhotoVerdict is the outcome of a proof-photo submission.
type PhotoVerdict struct {
	FromToday bool
	Info      string
	ParentID  *common.UserID
}

// Service drives the parent/child dialog flows: registration, invite
// redemption, task assignment, child removal and photo verification. Flow
// positions live in the injected FlowStore; durable facts in the
// repositories. Cross-user notifications are published on the event bus and
// delivered by the chatbot layer.
type Service interface {
	RegisterParent(userID common.UserID) (string, error)
	RedeemInvite(childID common.UserID, code string) (common.UserID, error)
	SetChildName(childID common.UserID, name string) (*common.UserID, error)
	RotateInvite(parentID common.UserID) (string, error)

	StartAssignTask(parentID common.UserID) (*AssignPrompt, error)
	SelectChild(parentID common.UserID, label string) ([]string, error)
	AssignTask(parentID common.UserID, label string) ([]common.UserID, error)
	StartRemoveChild(parentID common.UserID) ([]string, error)
	RemoveChild(parentID common.UserID, label string) (common.UserID, error)

	History(parentID common.UserID) ([]TaskEntry, error)
	MyTasks(childID common.UserID) ([]TaskEntry, error)
	SubmitPhoto(childID common.UserID, photo []byte) (*PhotoVerdict, error)

	// Flows exposes dialog positions to the update router's predicates.
	Flows() *FlowStore
}

type service struct {
	users   UserRepository
	invites InviteRepository
	flows   *FlowStore
	checker PhotoChecker
	bus     events.EventBus
	logger  *zap.Logger
}

// NewService creates the family service.
func NewService(users UserRepository, invites InviteRepository, flows *FlowStore,
	checker PhotoChecker, bus events.EventBus, logger *zap.Logger) Service {
	return &service{
		users:   users,
		invites: invites,
		flows:   flows,
		checker: checker,
		bus:     bus,
		logger:  logger,
	}
}

func (s *service) Flows() *FlowStore {
	return s.flows
}

// RegisterParent creates a parent account with a fresh invite code. When the
// account already exists as a parent the invite is rotated instead of
// resetting the family; an existing child account is refused to keep roles
// immutable.
func (s *service) RegisterParent(userID common.UserID) (string, error) {
	existing, err := s.users.Get(userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", err
	}

	if existing != nil && existing.Role == common.RoleChild {
		return "", ErrRoleConflict
	}

	code := GenerateInviteCode()

	if existing != nil {
		// Re-registration: keep children and history, hand out a new code.
		if err := s.users.Update(userID, func(u *User) error {
			u.Parent.Invite = code
			return nil
		}); err != nil {
			return "", err
		}
	} else {
		if err := s.users.Save(NewParent(userID, code)); err != nil {
			return "", err
		}
	}

	if err := s.invites.Put(code, userID); err != nil {
		return "", err
	}

	s.logger.Info("Parent registered",
		zap.String("user_id", userID.String()),
		zap.String("invite", code))

	return code, nil
}

// RedeemInvite links the sender to the invite's issuing parent. Linking is
// idempotent: redeeming twice leaves the child listed once. The code stays
// redeemable afterwards; a family can hold many children.
func (s *service) RedeemInvite(childID common.UserID, code string) (common.UserID, error) {
	code = strings.ToUpper(code)

	invite, err := s.invites.Get(code)
	if err != nil {
		return 0, err
	}

	parent, err := s.users.Get(invite.ParentID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, ErrInviteOrphaned
		}
		return 0, err
	}
	if parent.Role != common.RoleParent {
		return 0, ErrInviteOrphaned
	}

	existing, err := s.users.Get(childID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return 0, err
	}
	if existing != nil && existing.Role == common.RoleParent {
		return 0, ErrRoleConflict
	}

	if err := s.users.Save(NewChild(childID, invite.ParentID)); err != nil {
		return 0, err
	}

	if err := s.users.Update(invite.ParentID, func(u *User) error {
		if u.Role != common.RoleParent {
			return ErrNotParent
		}
		if !u.Parent.HasChild(childID) {
			u.Parent.Children = append(u.Parent.Children, childID)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	s.flows.SetAwaitingName(childID)

	s.logger.Info("Child linked",
		zap.String("child_id", childID.String()),
		zap.String("parent_id", invite.ParentID.String()))

	s.publish(events.TopicChildLinked, events.ChildLinked{
		Event:    events.NewEvent(),
		ChildID:  childID,
		ParentID: invite.ParentID,
	})

	return invite.ParentID, nil
}

// SetChildName records the display name a freshly linked child sent and
// clears the awaiting-name flow. Returns the linking parent, if any.
func (s *service) SetChildName(childID common.UserID, name string) (*common.UserID, error) {
	var parentID *common.UserID
	err := s.users.Update(childID, func(u *User) error {
		if u.Role != common.RoleChild {
			return ErrNotChild
		}
		u.Child.Name = name
		parentID = u.Child.ParentID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flows.ClearAwaitingName(childID)

	if parentID != nil {
		s.publish(events.TopicChildNamed, events.ChildNamed{
			Event:    events.NewEvent(),
			ChildID:  childID,
			ParentID: *parentID,
			Name:     name,
		})
	}

	return parentID, nil
}

// RotateInvite hands the parent a fresh code. The previous code keeps its
// registry entry and stays redeemable.
func (s *service) RotateInvite(parentID common.UserID) (string, error) {
	code := GenerateInviteCode()

	err := s.users.Update(parentID, func(u *User) error {
		if u.Role != common.RoleParent {
			return ErrNotParent
		}
		u.Parent.Invite = code
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.invites.Put(code, parentID); err != nil {
		return "", err
	}

	return code, nil
}

// StartAssignTask begins the assignment flow. A single child is pre-selected
// and the task menu offered straight away; several children require an
// explicit pick first.
func (s *service) StartAssignTask(parentID common.UserID) (*AssignPrompt, error) {
	parent, err := s.getParent(parentID)
	if err != nil {
		return nil, err
	}

	children := parent.Parent.Children
	switch {
	case len(children) == 0:
		return &AssignPrompt{Stage: AssignStageNoChildren}, nil

	case len(children) == 1:
		s.flows.SetParentFlow(parentID, &ParentFlow{
			Action:  FlowAssignTask,
			ChildID: children[0],
		})
		return &AssignPrompt{Stage: AssignStagePickTask, Labels: TaskCatalog}, nil

	default:
		labels, mapping := s.childLabels(children)
		s.flows.SetParentFlow(parentID, &ParentFlow{
			Action: FlowSelectChild,
			Labels: mapping,
		})
		return &AssignPrompt{Stage: AssignStagePickChild, Labels: labels}, nil
	}
}

// SelectChild resolves the child-pick menu reply and advances the flow to
// task selection. An unmapped label keeps the flow where it is.
func (s *service) SelectChild(parentID common.UserID, label string) ([]string, error) {
	flow, ok := s.flows.ParentFlow(parentID)
	if !ok || flow.Action != FlowSelectChild {
		return nil, ErrNoFlow
	}

	childID, ok := flow.Labels[label]
	if !ok {
		return nil, ErrUnknownSelection
	}

	s.flows.SetParentFlow(parentID, &ParentFlow{
		Action:  FlowAssignTask,
		ChildID: childID,
	})
	return TaskCatalog, nil
}

// AssignTask writes the chore into the parent's record and into the targeted
// child's record, or into every child's when no assignment flow is pending.
// Each affected child gets a TaskAssigned event.
func (s *service) AssignTask(parentID common.UserID, label string) ([]common.UserID, error) {
	if !IsCatalogTask(label) {
		return nil, ErrUnknownTask
	}

	parent, err := s.getParent(parentID)
	if err != nil {
		return nil, err
	}

	if err := s.users.Update(parentID, func(u *User) error {
		if u.Role != common.RoleParent {
			return ErrNotParent
		}
		u.Parent.Tasks[label] = ParentTask{Reward: DefaultReward, Active: true}
		return nil
	}); err != nil {
		return nil, err
	}

	// A pending assignment flow targets one child; otherwise the task is
	// broadcast to the whole family (the stale-state fallback the original
	// behavior relies on).
	var targets []common.UserID
	if flow, ok := s.flows.ClearParentFlow(parentID); ok && flow.Action == FlowAssignTask {
		targets = []common.UserID{flow.ChildID}
	} else {
		targets = parent.Parent.Children
	}

	assigned := make([]common.UserID, 0, len(targets))
	for _, childID := range targets {
		err := s.users.Update(childID, func(u *User) error {
			if u.Role != common.RoleChild {
				return ErrNotChild
			}
			u.Child.Tasks[label] = ChildTask{Status: common.TaskStatusActive}
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to assign task to child",
				zap.String("child_id", childID.String()),
				zap.String("label", label),
				zap.Error(err))
			continue
		}

		assigned = append(assigned, childID)
		s.publish(events.TopicTaskAssigned, events.TaskAssigned{
			Event:    events.NewEvent(),
			ChildID:  childID,
			ParentID: parentID,
			Label:    label,
		})
	}

	s.logger.Info("Task assigned",
		zap.String("parent_id", parentID.String()),
		zap.String("label", label),
		zap.Int("children", len(assigned)))

	return assigned, nil
}

// StartRemoveChild begins the removal flow and returns the child menu labels.
func (s *service) StartRemoveChild(parentID common.UserID) ([]string, error) {
	parent, err := s.getParent(parentID)
	if err != nil {
		return nil, err
	}

	if len(parent.Parent.Children) == 0 {
		return nil, ErrNoChildren
	}

	labels, mapping := s.childLabels(parent.Parent.Children)
	s.flows.SetParentFlow(parentID, &ParentFlow{
		Action: FlowRemoveChild,
		Labels: mapping,
	})
	return labels, nil
}

// RemoveChild unlinks the selected child: the parent's list drops the child
// and the child's parent field is cleared. The two writes are not atomic.
func (s *service) RemoveChild(parentID common.UserID, label string) (common.UserID, error) {
	flow, ok := s.flows.ParentFlow(parentID)
	if !ok || flow.Action != FlowRemoveChild {
		return 0, ErrNoFlow
	}

	childID, ok := flow.Labels[label]
	if !ok {
		return 0, ErrUnknownSelection
	}

	if err := s.users.Update(parentID, func(u *User) error {
		if u.Role != common.RoleParent {
			return ErrNotParent
		}
		children := make([]common.UserID, 0, len(u.Parent.Children))
		for _, id := range u.Parent.Children {
			if id != childID {
				children = append(children, id)
			}
		}
		u.Parent.Children = children
		return nil
	}); err != nil {
		return 0, err
	}

	if err := s.users.Update(childID, func(u *User) error {
		if u.Role != common.RoleChild {
			return ErrNotChild
		}
		u.Child.ParentID = nil
		return nil
	}); err != nil {
		return 0, err
	}

	s.flows.ClearParentFlow(parentID)

	s.logger.Info("Child removed",
		zap.String("parent_id", parentID.String()),
		zap.String("child_id", childID.String()))

	s.publish(events.TopicChildRemoved, events.ChildRemoved{
		Event:    events.NewEvent(),
		ChildID:  childID,
		ParentID: parentID,
	})

	return childID, nil
}

// History returns the parent's assigned tasks, sorted by label.
func (s *service) History(parentID common.UserID) ([]TaskEntry, error) {
	parent, err := s.getParent(parentID)
	if err != nil {
		return nil, err
	}

	entries := make([]TaskEntry, 0, len(parent.Parent.Tasks))
	for label, task := range parent.Parent.Tasks {
		entries = append(entries, TaskEntry{Label: label, Active: task.Active})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries, nil
}

// MyTasks returns the child's tasks, sorted by label.
func (s *service) MyTasks(childID common.UserID) ([]TaskEntry, error) {
	child, err := s.users.Get(childID)
	if err != nil {
		return nil, err
	}
	if child.Role != common.RoleChild {
		return nil, ErrNotChild
	}

	entries := make([]TaskEntry, 0, len(child.Child.Tasks))
	for label, task := range child.Child.Tasks {
		entries = append(entries, TaskEntry{Label: label, Status: task.Status})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries, nil
}

// SubmitPhoto runs the proof photo through the date check and reports the
// verdict to the linked parent via a PhotoVerified event.
func (s *service) SubmitPhoto(childID common.UserID, photo []byte) (*PhotoVerdict, error) {
	child, err := s.users.Get(childID)
	if err != nil {
		return nil, err
	}
	if child.Role != common.RoleChild {
		return nil, ErrNotChild
	}

	fromToday, info := s.checker.FromToday(photo)

	verdict := &PhotoVerdict{
		FromToday: fromToday,
		Info:      info,
		ParentID:  child.Child.ParentID,
	}

	s.logger.Info("Photo verified",
		zap.String("child_id", childID.String()),
		zap.Bool("from_today", fromToday))

	if verdict.ParentID != nil {
		s.publish(events.TopicPhotoVerified, events.PhotoVerified{
			Event:     events.NewEvent(),
			ChildID:   childID,
			ParentID:  *verdict.ParentID,
			FromToday: fromToday,
			Summary:   info,
		})
	}

	return verdict, nil
}

func (s *service) getParent(parentID common.UserID) (*User, error) {
	user, err := s.users.Get(parentID)
	if err != nil {
		return nil, err
	}
	if user.Role != common.RoleParent {
		return nil, ErrNotParent
	}
	return user, nil
}

// childLabels builds menu labels for the given children, resolving the
// display name of each from the store. Children that fail to load are
// labeled by ID suffix alone.
func (s *service) childLabels(children []common.UserID) ([]string, map[string]common.UserID) {
	labels := make([]string, 0, len(children))
	mapping := make(map[string]common.UserID, len(children))

	for _, childID := range children {
		child, err := s.users.Get(childID)
		if err != nil {
			child = &User{ID: childID, Role: common.RoleChild, Child: &ChildRecord{}}
		}
		label := ChildLabel(child)
		labels = append(labels, label)
		mapping[label] = childID
	}
	return labels, mapping
}

func (s *service) publish(topic string, event interface{}) {
	if err := s.bus.Publish(topic, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.Error(err))
	}
}
