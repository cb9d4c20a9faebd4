//go:generate stringer -type=Probe,Result,Action -output=capability_string.go

// Package capability decides, from a platform probe, whether biometric
// authentication can be attempted and what the host should do next.
package capability

import (
	"context"
	"log/slog"

	"github.com/go-ctap/biogate/pkg/options"
)

// Probe is the raw answer of a platform capability query.
type Probe int

const (
	ProbeSuccess Probe = iota
	ProbeNoHardware
	ProbeHardwareUnavailable
	ProbeSecurityUpdateRequired
	ProbeNoneEnrolled
	ProbeUnsupported
	ProbeStatusUnknown
	// ProbeFailed stands for a probe call that returned an error.
	ProbeFailed
)

// Result is the abstract capability derived from a Probe.
type Result int

const (
	Available Result = iota
	NoHardware
	TemporarilyUnavailable
	NotEnrolled
)

// Action is what the host should do with a Result.
type Action int

const (
	// ActionProceed means the authenticator may present a prompt.
	ActionProceed Action = iota
	// ActionDisable hides the biometric affordance for the session.
	ActionDisable
	// ActionShowTransientError tells the user to retry later.
	ActionShowTransientError
	// ActionOfferEnrollment offers navigation to the enrollment screen.
	ActionOfferEnrollment
)

// Prober queries the platform for hardware and enrollment status.
// Implementations must not block indefinitely.
type Prober interface {
	ProbeCapability(ctx context.Context) (Probe, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (Probe, error)

func (f ProberFunc) ProbeCapability(ctx context.Context) (Probe, error) {
	return f(ctx)
}

// Classify maps a probe to a Result. It is total: anything that is not a
// clean success, a missing sensor or a missing enrollment is treated as a
// transient condition.
func Classify(probe Probe) Result {
	switch probe {
	case ProbeSuccess:
		return Available
	case ProbeNoHardware:
		return NoHardware
	case ProbeNoneEnrolled:
		return NotEnrolled
	default:
		return TemporarilyUnavailable
	}
}

// NextActionFor returns the recommended next step for r.
func NextActionFor(r Result) Action {
	switch r {
	case Available:
		return ActionProceed
	case NoHardware:
		return ActionDisable
	case NotEnrolled:
		return ActionOfferEnrollment
	default:
		return ActionShowTransientError
	}
}

// Message is the user-facing text for r.
func (r Result) Message() string {
	switch r {
	case Available:
		return "Biometric authentication is available."
	case NoHardware:
		return "This device has no suitable biometric sensor."
	case NotEnrolled:
		return "No biometric credential is enrolled. Enroll one in the security settings to continue."
	default:
		return "Biometric authentication is temporarily unavailable or needs a security update. Try again later."
	}
}

// Classifier runs a Prober and classifies its answer.
type Classifier struct {
	logger *slog.Logger
}

func NewClassifier(opts ...options.Option) *Classifier {
	oo := options.NewOptions(opts...)

	return &Classifier{logger: oo.Logger}
}

// Check probes the platform once. A probe error is logged and reported as
// TemporarilyUnavailable instead of being propagated.
func (c *Classifier) Check(ctx context.Context, prober Prober) Result {
	probe, err := prober.ProbeCapability(ctx)
	if err != nil {
		c.logger.Warn("capability probe failed", "err", err)
		probe = ProbeFailed
	}

	r := Classify(probe)
	c.logger.Debug("capability classified", "probe", probe.String(), "result", r.String())

	return r
}
