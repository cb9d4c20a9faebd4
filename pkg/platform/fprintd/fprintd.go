// Package fprintd uses the Linux fingerprint daemon as the biometric
// platform. It talks to net.reactivated.Fprint on the system bus.
package fprintd

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
)

const (
	Service         = "net.reactivated.Fprint"
	ManagerPath     = dbus.ObjectPath("/net/reactivated/Fprint/Manager")
	ManagerIface    = "net.reactivated.Fprint.Manager"
	DeviceIface     = "net.reactivated.Fprint.Device"
	errorNamePrefix = "net.reactivated.Fprint.Error."

	// cleanupTimeout bounds VerifyStop and Release after the prompt ended.
	cleanupTimeout = 5 * time.Second
)

// Verify statuses delivered by the VerifyStatus signal.
const (
	StatusMatch           = "verify-match"
	StatusNoMatch         = "verify-no-match"
	StatusRetryScan       = "verify-retry-scan"
	StatusSwipeTooShort   = "verify-swipe-too-short"
	StatusFingerNotCenter = "verify-finger-not-centered"
	StatusRemoveFinger    = "verify-remove-finger"
	StatusDisconnected    = "verify-disconnected"
	StatusUnknownError    = "verify-unknown-error"
)

// Conn is the part of *dbus.Conn the platform uses.
type Conn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// Enroller hands the user over to fingerprint enrollment.
type Enroller interface {
	NavigateToEnrollment(ctx context.Context) error
}

type Platform struct {
	conn     Conn
	username string
	enroller Enroller
	onPrompt func(options.PromptNotice)
	logger   *slog.Logger
}

// Connect returns the shared system bus connection.
func Connect() (*dbus.Conn, error) {
	return dbus.SystemBus()
}

// New returns a platform for username; "" means the calling user.
// enroller may be nil.
func New(conn Conn, username string, enroller Enroller, opts ...options.Option) *Platform {
	oo := options.NewOptions(opts...)

	return &Platform{
		conn:     conn,
		username: username,
		enroller: enroller,
		onPrompt: oo.OnPrompt,
		logger:   oo.Logger,
	}
}

// errorName returns the fprintd error suffix of err, e.g. "NoSuchDevice".
func errorName(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return strings.TrimPrefix(dbusErr.Name, errorNamePrefix)
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) {
		return strings.TrimPrefix(dbusErrPtr.Name, errorNamePrefix)
	}
	return ""
}

func (p *Platform) defaultDevice(ctx context.Context) (dbus.BusObject, error) {
	var path dbus.ObjectPath
	err := p.conn.Object(Service, ManagerPath).
		CallWithContext(ctx, ManagerIface+".GetDefaultDevice", 0).
		Store(&path)
	if err != nil {
		return nil, err
	}

	return p.conn.Object(Service, path), nil
}

// ProbeFor maps an fprintd or bus error to a probe result.
func ProbeFor(err error) capability.Probe {
	if err == nil {
		return capability.ProbeSuccess
	}

	switch errorName(err) {
	case "NoSuchDevice", "org.freedesktop.DBus.Error.ServiceUnknown":
		return capability.ProbeNoHardware
	case "NoEnrolledPrints":
		return capability.ProbeNoneEnrolled
	case "AlreadyInUse", "PermissionDenied", "Internal":
		return capability.ProbeHardwareUnavailable
	case "":
		return capability.ProbeFailed
	default:
		return capability.ProbeStatusUnknown
	}
}

// ProbeCapability checks for a reader and for enrolled fingers.
func (p *Platform) ProbeCapability(ctx context.Context) (capability.Probe, error) {
	dev, err := p.defaultDevice(ctx)
	if err != nil {
		probe := ProbeFor(err)
		if probe == capability.ProbeFailed {
			return probe, err
		}
		p.logger.Debug("no default fingerprint reader", "err", err)
		return probe, nil
	}

	var fingers []string
	err = dev.CallWithContext(ctx, DeviceIface+".ListEnrolledFingers", 0, p.username).Store(&fingers)
	if err != nil {
		probe := ProbeFor(err)
		if probe == capability.ProbeFailed {
			return probe, err
		}
		return probe, nil
	}
	if len(fingers) == 0 {
		return capability.ProbeNoneEnrolled, nil
	}

	p.logger.Debug("enrolled fingers", "count", len(fingers))
	return capability.ProbeSuccess, nil
}

// EventFor maps a final VerifyStatus result to a prompt event.
func EventFor(status string) authn.EventKind {
	switch status {
	case StatusMatch:
		return authn.EventSucceeded
	case StatusNoMatch:
		return authn.EventRejected
	default:
		return authn.EventError
	}
}

// PresentPrompt claims the default reader and runs one verification.
// Intermediate statuses such as verify-retry-scan keep the prompt open.
func (p *Platform) PresentPrompt(ctx context.Context, info authn.PromptInfo) (authn.PromptEvent, error) {
	dev, err := p.defaultDevice(ctx)
	if err != nil {
		return p.eventForError(err)
	}

	if err := dev.CallWithContext(ctx, DeviceIface+".Claim", 0, p.username).Err; err != nil {
		return p.eventForError(err)
	}
	defer p.cleanup(dev, DeviceIface+".Release")

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(dev.Path()),
		dbus.WithMatchInterface(DeviceIface),
		dbus.WithMatchMember("VerifyStatus"),
	}
	if err := p.conn.AddMatchSignal(match...); err != nil {
		return authn.PromptEvent{}, err
	}
	defer func() {
		_ = p.conn.RemoveMatchSignal(match...)
	}()

	signals := make(chan *dbus.Signal, 8)
	p.conn.Signal(signals)
	defer p.conn.RemoveSignal(signals)

	if err := dev.CallWithContext(ctx, DeviceIface+".VerifyStart", 0, "any").Err; err != nil {
		return p.eventForError(err)
	}
	defer p.cleanup(dev, DeviceIface+".VerifyStop")

	p.onPrompt(info.Notice())

	for {
		select {
		case <-ctx.Done():
			return authn.PromptEvent{Kind: authn.EventCanceled, Message: ctx.Err().Error()}, nil
		case sig, ok := <-signals:
			if !ok {
				return authn.PromptEvent{}, errors.New("fprintd: signal channel closed")
			}
			if sig.Path != dev.Path() || sig.Name != DeviceIface+".VerifyStatus" {
				continue
			}

			var (
				status string
				done   bool
			)
			if err := dbus.Store(sig.Body, &status, &done); err != nil {
				return authn.PromptEvent{}, err
			}

			p.logger.Debug("verify status", "status", status, "done", done)
			if !done {
				continue
			}

			return authn.PromptEvent{Kind: EventFor(status), Message: status}, nil
		}
	}
}

func (p *Platform) eventForError(err error) (authn.PromptEvent, error) {
	switch errorName(err) {
	case "":
		return authn.PromptEvent{}, err
	case "NoEnrolledPrints":
		return authn.PromptEvent{Kind: authn.EventNotEnrolled, Message: err.Error()}, nil
	default:
		return authn.PromptEvent{Kind: authn.EventError, Message: err.Error()}, nil
	}
}

func (p *Platform) cleanup(dev dbus.BusObject, method string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := dev.CallWithContext(ctx, method, 0).Err; err != nil {
		p.logger.Debug("fprintd cleanup failed", "method", method, "err", err)
	}
}

// NavigateToEnrollment delegates to the configured Enroller.
func (p *Platform) NavigateToEnrollment(ctx context.Context) error {
	if p.enroller == nil {
		return enroll.ErrUnsupported
	}
	return p.enroller.NavigateToEnrollment(ctx)
}
