package family

import (
	"testing"

	"chorebot-api/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestFlowStore_ParentFlow(t *testing.T) {
	flows := NewFlowStore()
	parentID := common.UserID(1)

	_, ok := flows.ParentFlow(parentID)
	assert.False(t, ok)

	flows.SetParentFlow(parentID, &ParentFlow{Action: FlowSelectChild})

	flow, ok := flows.ParentFlow(parentID)
	assert.True(t, ok)
	assert.Equal(t, FlowSelectChild, flow.Action)

	cleared, ok := flows.ClearParentFlow(parentID)
	assert.True(t, ok)
	assert.Equal(t, FlowSelectChild, cleared.Action)

	_, ok = flows.ParentFlow(parentID)
	assert.False(t, ok)
}

func TestFlowStore_ClearMissingFlow(t *testing.T) {
	flows := NewFlowStore()
	_, ok := flows.ClearParentFlow(common.UserID(42))
	assert.False(t, ok)
}

func TestFlowStore_AwaitingName(t *testing.T) {
	flows := NewFlowStore()
	childID := common.UserID(7)

	assert.False(t, flows.AwaitingName(childID))

	flows.SetAwaitingName(childID)
	assert.True(t, flows.AwaitingName(childID))

	flows.ClearAwaitingName(childID)
	assert.False(t, flows.AwaitingName(childID))
}

func TestFlowStore_IndependentUsers(t *testing.T) {
	flows := NewFlowStore()
	flows.SetParentFlow(common.UserID(1), &ParentFlow{Action: FlowRemoveChild})
	flows.SetAwaitingName(common.UserID(2))

	_, ok := flows.ParentFlow(common.UserID(2))
	assert.False(t, ok)
	assert.False(t, flows.AwaitingName(common.UserID(1)))
}
