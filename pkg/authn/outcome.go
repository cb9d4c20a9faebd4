//go:generate stringer -type=OutcomeKind,EventKind -output=outcome_string.go
package authn

import (
	"time"

	"github.com/samber/mo"
)

type OutcomeKind int

const (
	Success OutcomeKind = iota
	Rejected
	Canceled
	LockedOut
	HardwareError
)

// Outcome is the result of a single Authenticate call.
// Until is set for LockedOut. Code, Message and Cause describe a
// HardwareError; Cause is the platform event that produced it.
type Outcome struct {
	Kind    OutcomeKind
	Until   time.Time
	Code    int
	Message string
	Cause   EventKind
}

func (o Outcome) String() string {
	switch o.Kind {
	case LockedOut:
		return o.Kind.String() + "(" + o.Until.Format(time.RFC3339Nano) + ")"
	case HardwareError:
		return o.Kind.String() + "(" + o.Message + ")"
	default:
		return o.Kind.String()
	}
}

// Err maps the outcome to the error taxonomy. Success yields nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case Success:
		return nil
	case Rejected:
		return newErrorMessage(ErrAuthentication, "rejected")
	case Canceled:
		return newErrorMessage(ErrAuthentication, "canceled")
	case LockedOut:
		return newErrorMessage(ErrLockout, "retry after "+o.Until.Format(time.RFC3339))
	}

	switch o.Cause {
	case EventLockoutPermanent:
		return newErrorMessage(ErrLockoutPermanent, o.Message)
	case EventNotEnrolled:
		return newErrorMessage(ErrCapability, o.Message)
	default:
		return newErrorMessage(ErrHardware, o.Message)
	}
}

// UserMessage is the user-facing text for the outcome. Every terminal state
// has its own text.
func (o Outcome) UserMessage() string {
	switch o.Kind {
	case Success:
		return "Authentication succeeded."
	case Rejected:
		return "Biometric not recognized. Try again."
	case Canceled:
		return "Authentication was canceled."
	case LockedOut:
		return "Too many attempts. Try again later."
	}

	switch o.Cause {
	case EventLockoutPermanent:
		return "Too many attempts. The biometric sensor is disabled until you unlock the device another way."
	case EventNotEnrolled:
		return "No biometric credential is enrolled or the sensor was disabled. Enroll one in the security settings."
	default:
		return "Biometric authentication failed because of a device error."
	}
}

// LockoutState is owned by one Authenticator and only changes in response
// to attempt outcomes.
type LockoutState struct {
	ConsecutiveFailures int
	LockedUntil         mo.Option[time.Time]
}

// Locked reports whether attempts are refused at now.
func (s LockoutState) Locked(now time.Time) bool {
	until, ok := s.LockedUntil.Get()
	return ok && now.Before(until)
}
