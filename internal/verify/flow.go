package verify

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/metrics"
	appvalidation "github.com/geoasistencia/console/internal/validation"
)

// State is the verification flow's current position.
type State int

// Flow states. The transitions are:
//
//	Idle -> Collecting           (Begin)
//	Collecting -> Collecting     (Submit with short justification; no network)
//	Collecting -> Verifying      (Submit with valid justification)
//	Verifying -> Issued          (exchange succeeded)
//	Verifying -> Collecting      (exchange failed; message surfaced)
//	any -> Idle                  (Cancel)
const (
	StateIdle State = iota
	StateCollecting
	StateVerifying
	StateIssued
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateVerifying:
		return "verifying"
	case StateIssued:
		return "issued"
	default:
		return "unknown"
	}
}

// Verifier exchanges a justification and password for a capability token.
type Verifier interface {
	// VerifyAction calls POST /admin/actions/verify.
	VerifyAction(ctx context.Context, action ActionKind, justification, password string) (string, error)
	// RevealPII calls POST /admin/privacy/reveal for the given target user.
	RevealPII(ctx context.Context, targetID, justification, password string) (string, error)
}

// Result is what a successful verification hands back: the issued capability
// and the pending action to execute immediately with it.
type Result struct {
	Capability Capability
	Pending    PendingAction
}

// Flow is the verification state machine. It is driven from a single
// goroutine (UI event loop / command loop); it is not safe for concurrent
// use, matching the single-threaded interaction model.
type Flow struct {
	verifier Verifier
	ttl      time.Duration
	now      func() time.Time
	metrics  metrics.ClientMetrics

	state         State
	pending       PendingAction
	justification string
	lastErr       string

	// generation guards against a verify response landing after Cancel:
	// the response is dropped instead of mutating a reused flow.
	generation uint64
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithTTL overrides the local capability validity window (default 60s).
func WithTTL(ttl time.Duration) FlowOption {
	return func(f *Flow) { f.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) { f.now = now }
}

// WithMetrics records workflow events.
func WithMetrics(m metrics.ClientMetrics) FlowOption {
	return func(f *Flow) { f.metrics = m }
}

// NewFlow creates an idle verification flow.
func NewFlow(verifier Verifier, opts ...FlowOption) *Flow {
	f := &Flow{
		verifier: verifier,
		ttl:      60 * time.Second,
		now:      time.Now,
		metrics:  metrics.NewNoOpClientMetrics(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// Justification returns the collected justification text. Preserved across a
// failed exchange so the operator only re-enters the password.
func (f *Flow) Justification() string { return f.justification }

// LastError returns the message to render inline next to the form, or "".
func (f *Flow) LastError() string { return f.lastErr }

// Begin starts collecting for the given pending action. Beginning again
// restarts collection and discards any prior pending action.
func (f *Flow) Begin(pending PendingAction) error {
	if pending.Kind.Action() == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown pending action kind")
	}
	f.generation++
	f.state = StateCollecting
	f.pending = pending
	f.justification = ""
	f.lastErr = ""
	return nil
}

// Cancel abandons the flow from any state, discarding the pending action and
// any partially entered text. A verify response still in flight is ignored.
func (f *Flow) Cancel() {
	f.generation++
	f.state = StateIdle
	f.pending = PendingAction{}
	f.justification = ""
	f.lastErr = ""
}

// Submit validates the justification locally and, when valid, exchanges it
// with the re-entered password for a capability. The 15-character minimum is
// enforced before any network call is made. On success the flow moves to
// Issued and the result carries the pending action for immediate execution.
// On backend failure the flow returns to Collecting with the message
// preserved; the password is never retained, so it must be re-entered.
func (f *Flow) Submit(ctx context.Context, justification, password string) (*Result, error) {
	if f.state != StateCollecting {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no verification in progress")
	}

	justification = strings.TrimSpace(justification)
	f.justification = justification

	if err := appvalidation.Justification.Validate(justification); err != nil {
		f.lastErr = appvalidation.JustificationErrorMessage
		f.metrics.RecordWorkflow(ctx, "verify", "invalid")
		return nil, appvalidation.WrapValidationError(err)
	}

	action := f.pending.Kind.Action()
	gen := f.generation
	f.state = StateVerifying

	var (
		token string
		err   error
	)
	if action == ActionPIIReveal {
		token, err = f.verifier.RevealPII(ctx, f.pending.TargetID, justification, password)
	} else {
		token, err = f.verifier.VerifyAction(ctx, action, justification, password)
	}

	if gen != f.generation {
		// Cancelled (or restarted) while the exchange was in flight; the
		// response belongs to a dead interaction and must not mutate state.
		return nil, nil
	}

	if err != nil {
		f.state = StateCollecting
		f.lastErr = err.Error()
		f.metrics.RecordWorkflow(ctx, "verify", "denied")
		return nil, err
	}

	issuedAt := f.now()
	result := &Result{
		Capability: Capability{
			Token:     token,
			Action:    action,
			IssuedAt:  issuedAt,
			ExpiresAt: issuedAt.Add(f.ttl),
		},
		Pending: f.pending,
	}

	f.state = StateIssued
	f.pending = PendingAction{}
	f.justification = ""
	f.lastErr = ""
	f.metrics.RecordWorkflow(ctx, "verify", "issued")
	return result, nil
}
