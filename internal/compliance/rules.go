package compliance

import (
	"time"

	"certguard/internal/verification"
)

// exceptionTransitions is the allowed exception lifecycle.
// pending_approval waits on an administrator; active exceptions end by
// resolution, expiry, or manual closure; everything else is terminal.
var exceptionTransitions = map[ExceptionStatus][]ExceptionStatus{
	ExceptionPendingApproval: {ExceptionActive, ExceptionClosed},
	ExceptionActive:          {ExceptionResolved, ExceptionExpired, ExceptionClosed},
}

// CanTransitionException reports whether an exception may move from one
// lifecycle state to another.
// This is pure domain logic - no I/O, no side effects.
func CanTransitionException(from, to ExceptionStatus) bool {
	for _, allowed := range exceptionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusForResult maps a verification outcome to the compliance status it
// implies. A review outcome implies no change; changed is false and callers
// keep the current status. A failing certificate always means non_compliant,
// even while an exception is active; the exception is standing-alongside
// context, not a verification override.
func StatusForResult(result verification.Status) (status Status, changed bool) {
	switch result {
	case verification.StatusPass:
		return StatusCompliant, true
	case verification.StatusFail:
		return StatusNonCompliant, true
	default:
		return "", false
	}
}

// IsExpired reports whether an active exception has passed its expiry.
func (e *Exception) IsExpired(now time.Time) bool {
	return e.Status == ExceptionActive && e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}
