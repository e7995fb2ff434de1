// file: internal/clickup/health.go
package clickup

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkoosis/taskdash/internal/fsm"
	"github.com/dkoosis/taskdash/internal/logging"
)

// Connection health states.
const (
	HealthUnknown      fsm.State = "unknown"
	HealthHealthy      fsm.State = "healthy"
	HealthThrottled    fsm.State = "throttled"
	HealthUnauthorized fsm.State = "unauthorized"
	HealthDegraded     fsm.State = "degraded"
)

// Events fed by the request pipeline.
const (
	eventSucceeded    fsm.Event = "request_succeeded"
	eventRateLimited  fsm.Event = "rate_limited"
	eventAuthRejected fsm.Event = "auth_rejected"
	eventFailed       fsm.Event = "request_failed"
)

// Health is a snapshot of the connection state.
type Health struct {
	State fsm.State `json:"state"`
	Since time.Time `json:"since"`
	// LastError is the message of the failure that caused the current state, if any.
	LastError string `json:"lastError,omitempty"`
}

// healthTracker derives the connection state from request outcomes.
type healthTracker struct {
	machine fsm.FSM
	logger  logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	since     time.Time
	lastError string
}

func newHealthTracker(logger logging.Logger, now func() time.Time) *healthTracker {
	h := &healthTracker{logger: logger, now: now, since: now()}
	all := []fsm.State{HealthUnknown, HealthHealthy, HealthThrottled, HealthUnauthorized, HealthDegraded}

	m := fsm.NewFSM(HealthUnknown, logger)
	for event, to := range map[fsm.Event]fsm.State{
		eventSucceeded:    HealthHealthy,
		eventRateLimited:  HealthThrottled,
		eventAuthRejected: HealthUnauthorized,
		eventFailed:       HealthDegraded,
	} {
		m.AddTransition(fsm.Transition{From: all, To: to, Event: event, Action: h.onTransition})
	}
	if err := m.Build(); err != nil {
		// The transition table is static; a build failure is a programming error.
		panic(err)
	}
	h.machine = m
	return h
}

func (h *healthTracker) onTransition(_ context.Context, _ fsm.Event, from, to fsm.State, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg, _ := data.(string)
	h.lastError = msg
	if from == to {
		return
	}
	h.since = h.now()
	if to == HealthHealthy {
		h.logger.Info("ClickUp connection healthy.", "previous", from)
	} else {
		h.logger.Warn("ClickUp connection state changed.", "from", from, "to", to, "reason", msg)
	}
}

// observe records the outcome of one HTTP attempt. status is 0 when no response arrived.
func (h *healthTracker) observe(ctx context.Context, status int, err error) {
	event := eventSucceeded
	switch {
	case status == http.StatusTooManyRequests:
		event = eventRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		event = eventAuthRejected
	case status >= http.StatusInternalServerError:
		event = eventFailed
	case status == 0 && err != nil:
		if isContextError(err) {
			return
		}
		event = eventFailed
	}
	var data any
	if err != nil {
		data = err.Error()
	}
	// Outcomes are recorded even if the caller's ctx is already done.
	if terr := h.machine.Transition(context.WithoutCancel(ctx), event, data); terr != nil && !fsm.IsNoTransition(terr) {
		h.logger.Debug("Health transition rejected.", "event", event, "error", terr)
	}
}

func (h *healthTracker) snapshot() Health {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Health{State: h.machine.CurrentState(), Since: h.since, LastError: h.lastError}
}

func (h *healthTracker) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.machine.Reset()
	h.since = h.now()
	h.lastError = ""
}
