package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound      = errors.New("calendar: item not found")
	ErrInvalidTransition = errors.New("calendar: invalid status transition")
	ErrValidation        = errors.New("calendar: validation failed")
	ErrPolicyRejected    = errors.New("calendar: rejected by booking rules")
	ErrConflict          = errors.New("calendar: interval overlaps an existing booking")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("calendar: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type RejectionReason string

const (
	ReasonBlackoutDay           RejectionReason = "blackout_day"
	ReasonOutsideOperatingHours RejectionReason = "outside_operating_hours"
	ReasonDurationTooShort      RejectionReason = "duration_too_short"
	ReasonDurationTooLong       RejectionReason = "duration_too_long"
	ReasonBeyondHorizon         RejectionReason = "beyond_booking_horizon"
	ReasonInPast                RejectionReason = "in_past"
	ReasonQuotaExceeded         RejectionReason = "monthly_quota_exceeded"
	ReasonConflict              RejectionReason = "conflict"
	ReasonCancellationTooLate   RejectionReason = "cancellation_too_late"
)

// Rejection is a rule outcome. Conflicts match ErrConflict, every other
// reason matches ErrPolicyRejected.
type Rejection struct {
	Reason      RejectionReason
	Detail      string
	Conflicting ItemID
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("calendar: rejected: %s", r.Reason)
	}
	return fmt.Sprintf("calendar: rejected: %s: %s", r.Reason, r.Detail)
}

func (r *Rejection) Is(target error) bool {
	switch target {
	case ErrConflict:
		return r.Reason == ReasonConflict
	case ErrPolicyRejected:
		return r.Reason != ReasonConflict
	default:
		return false
	}
}

func reject(reason RejectionReason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// RejectionOf extracts the typed rejection from err.
func RejectionOf(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
