// Package verify implements the step-up verification workflow: an operator
// supplies a justification and re-enters their password, and the backend
// exchanges them for a short-lived action capability scoped to exactly one
// action kind.
package verify

import "time"

// ActionKind is the closed set of sensitive actions the backend will issue a
// capability for.
type ActionKind string

// Action kinds accepted by the verification endpoints.
const (
	ActionAttendanceView ActionKind = "ATTENDANCE_VIEW"
	ActionManualReview   ActionKind = "MANUAL_REVIEW"
	ActionUserEdit       ActionKind = "USER_EDIT"
	ActionSedeEdit       ActionKind = "SEDE_EDIT"
	// ActionPIIReveal is exchanged on the dedicated privacy endpoint and its
	// capability is used as a bearer token rather than an X-Action-Token header.
	ActionPIIReveal ActionKind = "PII_REVEAL"
)

// Capability is a one-time, time-boxed authorization to perform exactly one
// sensitive read or write. The client enforces its own deadline: once
// ExpiresAt passes locally, the capability is never sent again, regardless of
// server-side validity.
type Capability struct {
	Token     string
	Action    ActionKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Valid reports whether the capability may still be used at the given instant.
func (c Capability) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

// Remaining returns the time left before the local deadline, never negative.
func (c Capability) Remaining(now time.Time) time.Duration {
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// PendingKind identifies what to do once verification succeeds.
type PendingKind string

// Pending action kinds.
const (
	PendingAttendanceDetail PendingKind = "asistencia_detail"
	PendingManualDetail     PendingKind = "manual_detail"
	PendingManualDecide     PendingKind = "manual_decide"
	PendingUserEdit         PendingKind = "user_edit"
	PendingSedeEdit         PendingKind = "sede_edit"
	PendingPIIReveal        PendingKind = "pii_reveal"
)

// Action returns the capability kind required to execute the pending action.
func (k PendingKind) Action() ActionKind {
	switch k {
	case PendingAttendanceDetail, PendingManualDetail:
		return ActionAttendanceView
	case PendingManualDecide:
		return ActionManualReview
	case PendingUserEdit:
		return ActionUserEdit
	case PendingSedeEdit:
		return ActionSedeEdit
	case PendingPIIReveal:
		return ActionPIIReveal
	default:
		return ""
	}
}

// PendingAction is a queued description of the sensitive operation to run
// once a capability is issued. It is consumed immediately after issuance and
// discarded if verification is cancelled.
type PendingAction struct {
	Kind     PendingKind
	TargetID string
	// Decision is set only for manual_decide ("approve" or "reject").
	Decision string
	// Payload carries the update body for user_edit and sede_edit.
	Payload any
}
