// Package ratelimit bounds the outbound request rate to the remote task API.
// file: internal/ratelimit/ratelimit.go
//
// The limiter keeps a fixed request budget per identifier over a rolling window.
// A window starts on the first request for an identifier and ends windowDuration
// later; callers that arrive once the budget is spent are suspended until the
// window ends and then compete for the fresh budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dkoosis/taskdash/internal/logging"
)

const (
	// DefaultIdentifier is used when callers do not partition their budget.
	DefaultIdentifier = "default"
	// DefaultMaxRequests is the per-window request budget.
	DefaultMaxRequests = 90
	// DefaultWindow is the length of a budget window.
	DefaultWindow = 60 * time.Second
)

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// WaitObserver is notified whenever a caller is suspended waiting for budget.
type WaitObserver func(identifier string, d time.Duration)

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// window is the budget state for one identifier.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter implements a fixed-window request budget keyed by identifier.
type Limiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time
	sleep       Sleeper
	observer    WaitObserver
	logger      logging.Logger

	mu      sync.Mutex
	windows map[string]*window
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleeper replaces the timer-based wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(l *Limiter) {
		if s != nil {
			l.sleep = s
		}
	}
}

// WithObserver registers a callback invoked before each suspension.
func WithObserver(o WaitObserver) Option {
	return func(l *Limiter) { l.observer = o }
}

// WithLogger sets the logger used for wait diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a limiter allowing maxRequests per window for each identifier.
// Non-positive values fall back to DefaultMaxRequests and DefaultWindow.
func New(maxRequests int, windowDuration time.Duration, opts ...Option) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowDuration <= 0 {
		windowDuration = DefaultWindow
	}
	l := &Limiter{
		maxRequests: maxRequests,
		window:      windowDuration,
		now:         time.Now,
		sleep:       Sleep,
		logger:      logging.GetNoopLogger(),
		windows:     make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxRequests returns the configured per-window budget.
func (l *Limiter) MaxRequests() int { return l.maxRequests }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Wait blocks until a request slot is available for identifier or ctx is done.
// An empty identifier means DefaultIdentifier. Budget is only consumed when Wait
// returns nil.
func (l *Limiter) Wait(ctx context.Context, identifier string) error {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	for {
		wait, ok := l.tryAcquire(identifier)
		if ok {
			return nil
		}
		if l.observer != nil {
			l.observer(identifier, wait)
		}
		l.logger.Debug("Request budget exhausted, waiting for window reset.",
			"identifier", identifier, "wait", wait, "maxRequests", l.maxRequests)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		// Re-evaluate after waking: other waiters may already have taken the fresh budget.
	}
}

// tryAcquire takes a slot if one is available, otherwise reports how long until
// the current window ends.
func (l *Limiter) tryAcquire(identifier string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[identifier]
	if !exists || !now.Before(w.resetAt) {
		l.windows[identifier] = &window{count: 1, resetAt: now.Add(l.window)}
		return 0, true
	}
	if w.count < l.maxRequests {
		w.count++
		return 0, true
	}
	return w.resetAt.Sub(now), false
}

// Remaining reports the unused budget for identifier without blocking.
func (l *Limiter) Remaining(identifier string) int {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[identifier]
	if !exists || !l.now().Before(w.resetAt) {
		return l.maxRequests
	}
	if remaining := l.maxRequests - w.count; remaining > 0 {
		return remaining
	}
	return 0
}

// ResetAt returns when the identifier's current window ends, or the zero time
// when no window is active.
func (l *Limiter) ResetAt(identifier string) time.Time {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[identifier]; ok {
		return w.resetAt
	}
	return time.Time{}
}

// Reset forgets the state for identifier so the next Wait starts a fresh window.
func (l *Limiter) Reset(identifier string) {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, identifier)
}
