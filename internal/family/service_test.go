package family

import (
	"testing"

	"chorebot-api/internal/common"
	"chorebot-api/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubChecker is a canned PhotoChecker
type stubChecker struct {
	fromToday bool
	info      string
}

func (s stubChecker) FromToday([]byte) (bool, string) {
	return s.fromToday, s.info
}

type serviceFixture struct {
	users   *MockUserRepository
	invites *MockInviteRepository
	flows   *FlowStore
	bus     *events.MockEventBus
	checker *stubChecker
	service Service
}

func newFixture(t *testing.T) *serviceFixture {
	f := &serviceFixture{
		users:   NewMockUserRepository(),
		invites: NewMockInviteRepository(),
		flows:   NewFlowStore(),
		bus:     events.NewMockEventBus(),
		checker: &stubChecker{},
	}
	f.service = NewService(f.users, f.invites, f.flows, f.checker, f.bus, zaptest.NewLogger(t))
	return f
}

// registerParent registers a parent and returns the invite code
func (f *serviceFixture) registerParent(t *testing.T, id common.UserID) string {
	code, err := f.service.RegisterParent(id)
	require.NoError(t, err)
	return code
}

// linkChild redeems the parent's current invite for the child
func (f *serviceFixture) linkChild(t *testing.T, childID common.UserID, code string) {
	_, err := f.service.RedeemInvite(childID, code)
	require.NoError(t, err)
	f.flows.ClearAwaitingName(childID)
}

func TestRegisterParent_CreatesParentWithInvite(t *testing.T) {
	f := newFixture(t)

	code := f.registerParent(t, 100)
	assert.Len(t, code, InviteCodeLength)

	user, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, common.RoleParent, user.Role)
	assert.Equal(t, code, user.Parent.Invite)
	assert.Empty(t, user.Parent.Children)

	invite, err := f.invites.Get(code)
	require.NoError(t, err)
	assert.Equal(t, common.UserID(100), invite.ParentID)
}

func TestRegisterParent_ExistingParentRotatesInvite(t *testing.T) {
	f := newFixture(t)
	first := f.registerParent(t, 100)
	f.linkChild(t, 200, first)

	second, err := f.service.RegisterParent(100)
	require.NoError(t, err)

	user, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, second, user.Parent.Invite)
	assert.Equal(t, []common.UserID{200}, user.Parent.Children, "re-registration keeps the family")
}

func TestRegisterParent_ChildCannotBecomeParent(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	_, err := f.service.RegisterParent(200)
	assert.ErrorIs(t, err, ErrRoleConflict)
}

func TestRedeemInvite_LinksChild(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)

	parentID, err := f.service.RedeemInvite(200, code)
	require.NoError(t, err)
	assert.Equal(t, common.UserID(100), parentID)

	child, err := f.users.Get(200)
	require.NoError(t, err)
	assert.Equal(t, common.RoleChild, child.Role)
	require.NotNil(t, child.Child.ParentID)
	assert.Equal(t, common.UserID(100), *child.Child.ParentID)

	parent, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, []common.UserID{200}, parent.Parent.Children)

	assert.True(t, f.flows.AwaitingName(200))
	assert.Len(t, f.bus.Published(events.TopicChildLinked), 1)
}

func TestRedeemInvite_LowercaseCodeAccepted(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)

	_, err := f.service.RedeemInvite(200, "  "+code)
	assert.Error(t, err, "whitespace is not trimmed; exact shape only")

	_, err = f.service.RedeemInvite(200, lower(code))
	require.NoError(t, err)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestRedeemInvite_DoubleRedemptionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)

	_, err := f.service.RedeemInvite(200, code)
	require.NoError(t, err)
	_, err = f.service.RedeemInvite(200, code)
	require.NoError(t, err)

	parent, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, []common.UserID{200}, parent.Parent.Children,
		"double redemption must not duplicate the child")
}

func TestRedeemInvite_CodeStaysValidForSiblings(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)

	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	parent, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, []common.UserID{200, 201}, parent.Parent.Children)
}

func TestRedeemInvite_UnknownCode(t *testing.T) {
	f := newFixture(t)
	saves := f.users.SaveCount()

	_, err := f.service.RedeemInvite(200, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrInviteNotFound)
	assert.Equal(t, saves, f.users.SaveCount(), "user store must stay untouched")
}

func TestRedeemInvite_OrphanedInvite(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invites.Put("ABCDEF", 999))

	_, err := f.service.RedeemInvite(200, "ABCDEF")
	assert.ErrorIs(t, err, ErrInviteOrphaned)
}

func TestRedeemInvite_ParentCannotBecomeChild(t *testing.T) {
	f := newFixture(t)
	codeA := f.registerParent(t, 100)
	f.registerParent(t, 101)

	_, err := f.service.RedeemInvite(101, codeA)
	assert.ErrorIs(t, err, ErrRoleConflict)
}

func TestSetChildName(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	_, err := f.service.RedeemInvite(200, code)
	require.NoError(t, err)
	require.True(t, f.flows.AwaitingName(200))

	parentID, err := f.service.SetChildName(200, "Марійка")
	require.NoError(t, err)
	require.NotNil(t, parentID)
	assert.Equal(t, common.UserID(100), *parentID)

	assert.False(t, f.flows.AwaitingName(200))

	child, err := f.users.Get(200)
	require.NoError(t, err)
	assert.Equal(t, "Марійка", child.Child.Name)

	published := f.bus.Published(events.TopicChildNamed)
	require.Len(t, published, 1)
	assert.Equal(t, "Марійка", published[0].(events.ChildNamed).Name)
}

func TestRotateInvite(t *testing.T) {
	f := newFixture(t)
	first := f.registerParent(t, 100)

	second, err := f.service.RotateInvite(100)
	require.NoError(t, err)
	assert.Len(t, second, InviteCodeLength)

	user, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, second, user.Parent.Invite)

	// The superseded code keeps its registry mapping.
	invite, err := f.invites.Get(first)
	require.NoError(t, err)
	assert.Equal(t, common.UserID(100), invite.ParentID)
}

func TestStartAssignTask_NoChildren(t *testing.T) {
	f := newFixture(t)
	f.registerParent(t, 100)

	prompt, err := f.service.StartAssignTask(100)
	require.NoError(t, err)
	assert.Equal(t, AssignStageNoChildren, prompt.Stage)

	_, ok := f.flows.ParentFlow(100)
	assert.False(t, ok, "no flow starts when there is nobody to assign to")
}

func TestStartAssignTask_SingleChildSkipsSelection(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	prompt, err := f.service.StartAssignTask(100)
	require.NoError(t, err)
	assert.Equal(t, AssignStagePickTask, prompt.Stage)
	assert.Equal(t, TaskCatalog, prompt.Labels)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	assert.Equal(t, FlowAssignTask, flow.Action)
	assert.Equal(t, common.UserID(200), flow.ChildID)
}

func TestStartAssignTask_MultipleChildrenRequireSelection(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	prompt, err := f.service.StartAssignTask(100)
	require.NoError(t, err)
	assert.Equal(t, AssignStagePickChild, prompt.Stage)
	assert.Len(t, prompt.Labels, 2)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	assert.Equal(t, FlowSelectChild, flow.Action)
	assert.Len(t, flow.Labels, 2)
}

func TestSelectChild(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	prompt, err := f.service.StartAssignTask(100)
	require.NoError(t, err)

	tasks, err := f.service.SelectChild(100, prompt.Labels[1])
	require.NoError(t, err)
	assert.Equal(t, TaskCatalog, tasks)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	assert.Equal(t, FlowAssignTask, flow.Action)
	assert.Equal(t, common.UserID(201), flow.ChildID)
}

func TestSelectChild_UnknownLabelKeepsFlow(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	_, err := f.service.StartAssignTask(100)
	require.NoError(t, err)

	_, err = f.service.SelectChild(100, "хтось інший")
	assert.ErrorIs(t, err, ErrUnknownSelection)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	assert.Equal(t, FlowSelectChild, flow.Action, "unmatched input stays in select_child")
}

func TestAssignTask_TargetedChild(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	prompt, err := f.service.StartAssignTask(100)
	require.NoError(t, err)
	_, err = f.service.SelectChild(100, prompt.Labels[0])
	require.NoError(t, err)

	label := TaskCatalog[0]
	assigned, err := f.service.AssignTask(100, label)
	require.NoError(t, err)
	assert.Equal(t, []common.UserID{200}, assigned)

	parent, err := f.users.Get(100)
	require.NoError(t, err)
	assert.Equal(t, ParentTask{Reward: DefaultReward, Active: true}, parent.Parent.Tasks[label])

	target, err := f.users.Get(200)
	require.NoError(t, err)
	assert.Equal(t, ChildTask{Status: common.TaskStatusActive}, target.Child.Tasks[label])

	other, err := f.users.Get(201)
	require.NoError(t, err)
	assert.NotContains(t, other.Child.Tasks, label)

	_, ok := f.flows.ParentFlow(100)
	assert.False(t, ok, "flow is cleared after assignment")

	assert.Len(t, f.bus.Published(events.TopicTaskAssigned), 1)
}

func TestAssignTask_NoFlowBroadcastsToAllChildren(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	label := TaskCatalog[1]
	assigned, err := f.service.AssignTask(100, label)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.UserID{200, 201}, assigned)

	assert.Len(t, f.bus.Published(events.TopicTaskAssigned), 2)
}

func TestAssignTask_UnknownLabel(t *testing.T) {
	f := newFixture(t)
	f.registerParent(t, 100)

	_, err := f.service.AssignTask(100, "Вигуляти дракона")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRemoveChild_ClearsBothSides(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.linkChild(t, 201, code)

	labels, err := f.service.StartRemoveChild(100)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	wanted := labels[0]
	removedID := flow.Labels[wanted]

	childID, err := f.service.RemoveChild(100, wanted)
	require.NoError(t, err)
	assert.Equal(t, removedID, childID)

	parent, err := f.users.Get(100)
	require.NoError(t, err)
	assert.NotContains(t, parent.Parent.Children, childID)

	child, err := f.users.Get(childID)
	require.NoError(t, err)
	assert.Nil(t, child.Child.ParentID)

	_, ok = f.flows.ParentFlow(100)
	assert.False(t, ok)

	assert.Len(t, f.bus.Published(events.TopicChildRemoved), 1)
}

func TestRemoveChild_UnknownLabelKeepsFlow(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	_, err := f.service.StartRemoveChild(100)
	require.NoError(t, err)

	_, err = f.service.RemoveChild(100, "невідомо хто")
	assert.ErrorIs(t, err, ErrUnknownSelection)

	flow, ok := f.flows.ParentFlow(100)
	require.True(t, ok)
	assert.Equal(t, FlowRemoveChild, flow.Action)
}

func TestStartRemoveChild_NoChildren(t *testing.T) {
	f := newFixture(t)
	f.registerParent(t, 100)

	_, err := f.service.StartRemoveChild(100)
	assert.ErrorIs(t, err, ErrNoChildren)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	_, err := f.service.AssignTask(100, TaskCatalog[2])
	require.NoError(t, err)
	_, err = f.service.AssignTask(100, TaskCatalog[0])
	require.NoError(t, err)

	entries, err := f.service.History(100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Label < entries[1].Label, "entries are sorted by label")
	for _, e := range entries {
		assert.True(t, e.Active)
	}
}

func TestMyTasks(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	_, err := f.service.AssignTask(100, TaskCatalog[0])
	require.NoError(t, err)

	entries, err := f.service.MyTasks(200)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TaskCatalog[0], entries[0].Label)
	assert.Equal(t, common.TaskStatusActive, entries[0].Status)

	_, err = f.service.MyTasks(100)
	assert.ErrorIs(t, err, ErrNotChild)
}

func TestSubmitPhoto_FromToday(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)
	f.checker.fromToday = true
	f.checker.info = "Фото зроблено: 2024-01-01 10:00:00"

	verdict, err := f.service.SubmitPhoto(200, []byte("jpeg"))
	require.NoError(t, err)
	assert.True(t, verdict.FromToday)
	assert.Contains(t, verdict.Info, "2024-01-01")
	require.NotNil(t, verdict.ParentID)
	assert.Equal(t, common.UserID(100), *verdict.ParentID)

	published := f.bus.Published(events.TopicPhotoVerified)
	require.Len(t, published, 1)
	event := published[0].(events.PhotoVerified)
	assert.True(t, event.FromToday)
	assert.Equal(t, common.UserID(100), event.ParentID)
}

func TestSubmitPhoto_ParentRefused(t *testing.T) {
	f := newFixture(t)
	f.registerParent(t, 100)

	_, err := f.service.SubmitPhoto(100, []byte("jpeg"))
	assert.ErrorIs(t, err, ErrNotChild)
}

func TestSubmitPhoto_UnlinkedChildSkipsParentNotice(t *testing.T) {
	f := newFixture(t)
	code := f.registerParent(t, 100)
	f.linkChild(t, 200, code)

	labels, err := f.service.StartRemoveChild(100)
	require.NoError(t, err)
	_, err = f.service.RemoveChild(100, labels[0])
	require.NoError(t, err)

	verdict, err := f.service.SubmitPhoto(200, []byte("jpeg"))
	require.NoError(t, err)
	assert.Nil(t, verdict.ParentID)
	assert.Empty(t, f.bus.Published(events.TopicPhotoVerified))
}
