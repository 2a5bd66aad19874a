package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64  { return &v }

func TestMessageStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from, to MessageStatus
		allowed  bool
	}{
		{MessageStatusQueued, MessageStatusSent, true},
		{MessageStatusQueued, MessageStatusDelivered, true},
		{MessageStatusQueued, MessageStatusFailed, true},
		{MessageStatusSent, MessageStatusDelivered, true},
		{MessageStatusSent, MessageStatusFailed, true},
		{MessageStatusSent, MessageStatusQueued, false},
		{MessageStatusDelivered, MessageStatusSent, false},
		{MessageStatusDelivered, MessageStatusFailed, false},
		{MessageStatusFailed, MessageStatusSent, false},
		{MessageStatusReceived, MessageStatusSent, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestMessageStatus_IsTerminal(t *testing.T) {
	assert.False(t, MessageStatusQueued.IsTerminal())
	assert.False(t, MessageStatusSent.IsTerminal())
	assert.True(t, MessageStatusDelivered.IsTerminal())
	assert.True(t, MessageStatusFailed.IsTerminal())
	assert.True(t, MessageStatusReceived.IsTerminal())
}

func TestBuildSteps(t *testing.T) {
	t.Run("assigns order from index", func(t *testing.T) {
		steps, err := BuildSteps(9, []StepInput{
			{Type: StepTypeSendText, TextBody: strPtr("hello")},
			{Type: StepTypeWait, WaitMs: int64Ptr(60000)},
			{Type: StepTypeSendText, TextBody: strPtr("again")},
		})
		require.NoError(t, err)
		require.Len(t, steps, 3)
		for i, s := range steps {
			assert.Equal(t, i, s.Order)
			assert.Equal(t, uint(9), s.WorkflowID)
		}
		assert.Equal(t, "hello", steps[0].Text())
		assert.Equal(t, int64(60000), *steps[1].WaitMs)
	})

	t.Run("wait without duration defaults to zero", func(t *testing.T) {
		steps, err := BuildSteps(1, []StepInput{{Type: StepTypeWait}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), *steps[0].WaitMs)
	})

	t.Run("send text needs a body", func(t *testing.T) {
		_, err := BuildSteps(1, []StepInput{{Type: StepTypeSendText, TextBody: strPtr("   ")}})
		assert.True(t, errors.Is(err, ErrInvalidStep))
	})

	t.Run("negative wait rejected", func(t *testing.T) {
		_, err := BuildSteps(1, []StepInput{{Type: StepTypeWait, WaitMs: int64Ptr(-1)}})
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := BuildSteps(1, []StepInput{{Type: "CALL"}})
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("empty list", func(t *testing.T) {
		steps, err := BuildSteps(1, nil)
		require.NoError(t, err)
		assert.Empty(t, steps)
	})
}

func TestWorkflow_VisibleTo(t *testing.T) {
	owner := uint(3)
	assert.True(t, (&Workflow{}).VisibleTo(7))
	assert.True(t, (&Workflow{OwnerID: &owner}).VisibleTo(3))
	assert.False(t, (&Workflow{OwnerID: &owner}).VisibleTo(4))
}
