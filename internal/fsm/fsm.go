// Package fsm wraps looplab/fsm behind a small builder used for connection health tracking.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/logging"
	lfsm "github.com/looplab/fsm"
)

// State represents a state in the FSM.
type State string

// Event represents an event that can trigger a state transition.
type Event string

// TransitionAction runs after its event fires. It also runs for self-transitions,
// where from equals to.
type TransitionAction func(ctx context.Context, event Event, from, to State, data any)

// Transition defines a transition rule between states.
type Transition struct {
	From   []State
	To     State
	Event  Event
	Action TransitionAction
}

// FSM is the builder-then-run state machine interface.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after adding all transitions.
	AddTransition(transition Transition) FSM
	// Build creates the underlying machine.
	Build() error
	CurrentState() State
	// Transition fires event. Firing an event whose destination is the current
	// state returns an error satisfying IsNoTransition.
	Transition(ctx context.Context, event Event, data any) error
	// Reset returns the machine to its initial state.
	Reset() error
}

// ErrNotBuilt is returned when the machine is used before a successful Build.
var ErrNotBuilt = errors.New("fsm: not built")

// IsNoTransition reports whether err only means the machine was already in the target state.
func IsNoTransition(err error) bool {
	var noTransition lfsm.NoTransitionError
	return errors.As(err, &noTransition)
}

type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition
	fsm          *lfsm.FSM
	buildErr     error
	mu           sync.RWMutex
}

// NewFSM creates a new FSM builder with the given initial state.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm"),
	}
}

func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.fsm != nil:
		l.setBuildErr(errors.New("cannot add transition after Build"))
	case len(t.From) == 0:
		l.logger.Error("Transition definition missing source states.", "event", t.Event, "to", t.To)
		l.setBuildErr(errors.Newf("transition %q has no source states", t.Event))
	default:
		l.transitions = append(l.transitions, t)
	}
	return l
}

func (l *loopFSM) setBuildErr(err error) {
	if l.buildErr == nil {
		l.buildErr = err
	}
}

// Build is idempotent: a second call returns the first call's result.
func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil || l.buildErr != nil {
		return l.buildErr
	}

	callbacks := make(lfsm.Callbacks)
	descs := make(map[string]*lfsm.EventDesc)
	order := make([]string, 0, len(l.transitions))

	for _, t := range l.transitions {
		name := string(t.Event)
		desc, ok := descs[name]
		if !ok {
			desc = &lfsm.EventDesc{Name: name, Dst: string(t.To)}
			descs[name] = desc
			order = append(order, name)
		} else if desc.Dst != string(t.To) {
			l.buildErr = errors.Newf("conflicting destinations %q and %q for event %q", desc.Dst, t.To, name)
			l.logger.Error("Invalid FSM configuration.", "error", l.buildErr)
			return l.buildErr
		}
		for _, s := range t.From {
			desc.Src = appendUnique(desc.Src, string(s))
		}

		if t.Action != nil {
			callbacks["after_"+name] = actionCallback(t, callbacks["after_"+name])
		}
	}

	events := make([]lfsm.EventDesc, 0, len(order))
	for _, name := range order {
		events = append(events, *descs[name])
	}
	l.fsm = lfsm.NewFSM(string(l.initialState), events, callbacks)
	l.logger.Debug("FSM built.", "initialState", l.initialState, "events", len(events))
	return nil
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func eventData(e *lfsm.Event) any {
	if len(e.Args) > 0 {
		return e.Args[0]
	}
	return nil
}

// actionCallback chains actions registered for the same event.
func actionCallback(t Transition, next lfsm.Callback) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		if next != nil {
			next(ctx, e)
		}
		t.Action(ctx, t.Event, State(e.Src), State(e.Dst), eventData(e))
	}
}

func (l *loopFSM) machine() (*lfsm.FSM, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		if l.buildErr != nil {
			return nil, l.buildErr
		}
		return nil, ErrNotBuilt
	}
	return l.fsm, nil
}

func (l *loopFSM) CurrentState() State {
	m, err := l.machine()
	if err != nil {
		return ""
	}
	return State(m.Current())
}

func (l *loopFSM) Transition(ctx context.Context, event Event, data any) error {
	m, err := l.machine()
	if err != nil {
		return err
	}
	from := m.Current()

	var args []any
	if data != nil {
		args = append(args, data)
	}
	if err := m.Event(ctx, string(event), args...); err != nil {
		if !IsNoTransition(err) {
			l.logger.Debug("FSM transition failed.", "event", event, "from", from, "error", err)
		}
		return err
	}
	l.logger.Debug("FSM transition.", "event", event, "from", from, "to", m.Current())
	return nil
}

func (l *loopFSM) Reset() error {
	m, err := l.machine()
	if err != nil {
		return err
	}
	m.SetState(string(l.initialState))
	return nil
}
