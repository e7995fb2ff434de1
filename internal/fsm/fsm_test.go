// file: internal/fsm/fsm_test.go
package fsm

import (
	"context"
	"testing"

	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"

	EventStart Event = "start"
	EventPause Event = "pause"
	EventStop  Event = "stop"
	EventReset Event = "reset"
)

func buildTestFSM(t *testing.T) FSM {
	t.Helper()
	m := NewFSM(StateIdle, logging.GetNoopLogger())
	m.AddTransition(Transition{From: []State{StateIdle, StatePaused}, Event: EventStart, To: StateRunning})
	m.AddTransition(Transition{From: []State{StateRunning}, Event: EventPause, To: StatePaused})
	m.AddTransition(Transition{From: []State{StateRunning, StatePaused}, Event: EventStop, To: StateFinished})
	m.AddTransition(Transition{From: []State{StateFinished}, Event: EventReset, To: StateIdle})
	require.NoError(t, m.Build(), "Failed to build test FSM.")
	return m
}

func TestFSM_BasicTransitions_Succeeds(t *testing.T) {
	m := buildTestFSM(t)
	ctx := context.Background()

	assert.Equal(t, StateIdle, m.CurrentState())
	require.NoError(t, m.Transition(ctx, EventStart, nil))
	assert.Equal(t, StateRunning, m.CurrentState())
	require.NoError(t, m.Transition(ctx, EventPause, nil))
	require.NoError(t, m.Transition(ctx, EventStart, nil), "Resume from paused should succeed.")
	require.NoError(t, m.Transition(ctx, EventStop, nil))
	assert.Equal(t, StateFinished, m.CurrentState())
}

func TestFSM_InvalidEvent_ReturnsError(t *testing.T) {
	m := buildTestFSM(t)
	err := m.Transition(context.Background(), EventPause, nil)
	require.Error(t, err)
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSM_Build_IsIdempotent(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	require.NoError(t, m.Build())
	require.NoError(t, m.Build())
}

func TestFSM_Build_RejectsConflictingDestinations(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{From: []State{StateIdle}, Event: EventStart, To: StateRunning})
	m.AddTransition(Transition{From: []State{StatePaused}, Event: EventStart, To: StateFinished})
	require.Error(t, m.Build())
	assert.Equal(t, State(""), m.CurrentState())
}

func TestFSM_AddTransition_WithoutSourceFailsBuild(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{Event: EventStart, To: StateRunning})
	require.Error(t, m.Build())
}

func TestFSM_UseBeforeBuild(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	err := m.Transition(context.Background(), EventStart, nil)
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestFSM_ActionReceivesStatesAndData(t *testing.T) {
	var gotFrom, gotTo State
	var gotData any
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{
		From:  []State{StateIdle, StateRunning},
		Event: EventStart,
		To:    StateRunning,
		Action: func(_ context.Context, _ Event, from, to State, data any) {
			gotFrom, gotTo, gotData = from, to, data
		},
	})
	require.NoError(t, m.Build())

	require.NoError(t, m.Transition(context.Background(), EventStart, "payload"))
	assert.Equal(t, StateIdle, gotFrom)
	assert.Equal(t, StateRunning, gotTo)
	assert.Equal(t, "payload", gotData)

	err := m.Transition(context.Background(), EventStart, nil)
	assert.True(t, IsNoTransition(err), "Self-transition should report no transition.")
	assert.Equal(t, StateRunning, m.CurrentState())
}

func TestFSM_Reset(t *testing.T) {
	m := buildTestFSM(t)
	require.NoError(t, m.Transition(context.Background(), EventStart, nil))
	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.CurrentState())
}
