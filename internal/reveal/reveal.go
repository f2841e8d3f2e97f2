// Package reveal manages the lifetime of one issued capability and the
// sensitive record it unlocked. The record exists only in transient state:
// it is purged when the local deadline elapses, when the operator dismisses
// it, or when the owning view goes away, whichever comes first.
package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/geoasistencia/console/internal/metrics"
	"github.com/geoasistencia/console/internal/verify"
)

// DefaultInterval is how often the countdown recomputes remaining time.
// Polling well below one second keeps the displayed seconds smooth and avoids
// drift-related off-by-one jumps.
const DefaultInterval = 250 * time.Millisecond

// Session owns at most one revealed record at a time. Starting a new reveal
// implicitly invalidates any prior one in the same instance.
//
// Tick is safe to call from the Run goroutine while accessors are used from
// the command loop.
type Session struct {
	interval time.Duration
	now      func() time.Time
	metrics  metrics.ClientMetrics
	onChange func(secondsLeft int)
	onClear  func()

	mu         sync.Mutex
	active     bool
	capability verify.Capability
	record     any
	remaining  int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInterval overrides the countdown poll interval.
func WithInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.interval = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithMetrics records reveal lifecycle events.
func WithMetrics(m metrics.ClientMetrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithOnChange registers a callback invoked whenever the displayed
// seconds-remaining value changes.
func WithOnChange(fn func(secondsLeft int)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// WithOnClear registers a callback invoked exactly once when the record is
// purged, whether by expiry or dismissal.
func WithOnClear(fn func()) SessionOption {
	return func(s *Session) { s.onClear = fn }
}

// NewSession creates an empty reveal session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		interval: DefaultInterval,
		now:      time.Now,
		metrics:  metrics.NewNoOpClientMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start records the capability and revealed payload and arms the countdown
// from the capability's deadline. The deadline is computed once at issuance
// and never extended. Any prior record is purged first.
func (s *Session) Start(capability verify.Capability, record any) {
	s.mu.Lock()
	if s.active {
		s.clearLocked()
	}
	s.active = true
	s.capability = capability
	s.record = record
	s.remaining = secondsLeft(capability.ExpiresAt, s.now())
	onChange := s.onChange
	remaining := s.remaining
	s.mu.Unlock()

	s.metrics.RecordWorkflow(context.Background(), "reveal", "started")
	if onChange != nil {
		onChange(remaining)
	}
}

// Tick advances the countdown to the given instant. When the deadline has
// passed, the capability is discarded and the record cleared; calling Tick
// again afterwards keeps remaining at zero without re-arming. Returns the
// seconds still to display.
func (s *Session) Tick(now time.Time) int {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0
	}

	left := secondsLeft(s.capability.ExpiresAt, now)
	changed := left != s.remaining
	s.remaining = left
	onChange := s.onChange

	if left <= 0 {
		s.clearLocked()
		s.mu.Unlock()
		s.metrics.RecordWorkflow(context.Background(), "reveal", "expired")
		return 0
	}
	s.mu.Unlock()

	if changed && onChange != nil {
		onChange(left)
	}
	return left
}

// Dismiss purges the record immediately ("hide now") and cancels the
// countdown. Dismissing an already-cleared session is a no-op.
func (s *Session) Dismiss() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.mu.Unlock()
	s.metrics.RecordWorkflow(context.Background(), "reveal", "dismissed")
}

// Active reports whether a record is currently revealed.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Remaining returns the seconds still to display, zero once expired.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0
	}
	return s.remaining
}

// Record returns the revealed payload, or nil after expiry or dismissal.
func (s *Session) Record() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	return s.record
}

// Capability returns the held capability while it is still locally valid.
// Once the deadline passes it is gone: the client never attempts to use a
// capability after its local deadline, even if the server would accept it.
func (s *Session) Capability() (verify.Capability, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.capability.Valid(s.now()) {
		return verify.Capability{}, false
	}
	return s.capability, true
}

// Run drives the countdown on a fixed ticker until expiry, dismissal, or
// context cancellation. It never updates the session after it returns.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Active() {
				return
			}
			if s.Tick(s.now()) == 0 {
				return
			}
		}
	}
}

// clearLocked purges capability and record. Callers hold s.mu.
func (s *Session) clearLocked() {
	s.active = false
	s.capability = verify.Capability{}
	s.record = nil
	s.remaining = 0
	if s.onClear != nil {
		s.onClear()
	}
}

// secondsLeft computes the displayed seconds as a ceiling so the counter
// starts at the full window and reaches zero exactly at the deadline.
func secondsLeft(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return secs
}
