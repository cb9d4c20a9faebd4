// Package fido uses a FIDO2 authenticator with built-in user verification,
// typically a fingerprint security key, as the biometric platform.
//
// A successful getPinUvAuthTokenUsingUvWithPermissions counts as an
// authenticated prompt; the token itself is discarded.
package fido

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
)

// Device is the subset of *device.Device the platform needs.
type Device interface {
	Info() *ctaptypes.AuthenticatorGetInfoResponse
	GetUVRetries(ctx context.Context) (uint, error)
	GetPinUvAuthTokenUsingUV(
		ctx context.Context,
		permission ctaptypes.Permission,
		rpID string,
		onKeepalive ctaphid.KeepaliveFunc,
	) ([]byte, error)
}

// Enroller hands the user over to biometric enrollment.
type Enroller interface {
	NavigateToEnrollment(ctx context.Context) error
}

type Platform struct {
	dev      Device
	enroller Enroller
	rpID     string
	onPrompt func(options.PromptNotice)
	logger   *slog.Logger
}

// New wraps an opened device. enroller may be nil, in which case
// NavigateToEnrollment reports enroll.ErrUnsupported.
func New(dev Device, enroller Enroller, opts ...options.Option) *Platform {
	oo := options.NewOptions(opts...)

	return &Platform{
		dev:      dev,
		enroller: enroller,
		rpID:     oo.RPID,
		onPrompt: oo.OnPrompt,
		logger:   oo.Logger,
	}
}

// ProbeCapability derives the probe from the getInfo options and the UV
// retry counter.
func (p *Platform) ProbeCapability(ctx context.Context) (capability.Probe, error) {
	info := p.dev.Info()

	uv, ok := info.Option(ctaptypes.OptionUserVerification)
	if !ok {
		return capability.ProbeNoHardware, nil
	}
	if info.UvModality != 0 && !info.UvModality.Biometric() {
		p.logger.Debug("built-in UV is not biometric", "uvModality", info.UvModality)
		return capability.ProbeNoHardware, nil
	}
	if !uv {
		return capability.ProbeNoneEnrolled, nil
	}
	if bio, ok := info.Option(ctaptypes.OptionBioEnroll); ok && !bio {
		return capability.ProbeNoneEnrolled, nil
	}
	if token, _ := info.Option(ctaptypes.OptionPinUvAuthToken); !token {
		return capability.ProbeUnsupported, nil
	}

	retries, err := p.dev.GetUVRetries(ctx)
	if err != nil {
		return capability.ProbeFailed, err
	}
	if retries == 0 {
		return capability.ProbeHardwareUnavailable, nil
	}

	return capability.ProbeSuccess, nil
}

// PresentPrompt asks the authenticator for a UV token and waits for the
// user. The prompt notifier fires when the device starts waiting for a
// finger. Canceling ctx cancels the request on the device.
func (p *Platform) PresentPrompt(ctx context.Context, info authn.PromptInfo) (authn.PromptEvent, error) {
	var once sync.Once
	onKeepalive := func(status ctaphid.KeepaliveStatus) {
		if status != ctaphid.STATUS_UPNEEDED {
			return
		}
		once.Do(func() {
			p.onPrompt(info.Notice())
		})
	}

	_, err := p.dev.GetPinUvAuthTokenUsingUV(ctx, ctaptypes.PermissionGetAssertion, p.rpID, onKeepalive)
	if err == nil {
		return authn.PromptEvent{Kind: authn.EventSucceeded}, nil
	}

	if errors.Is(err, device.ErrUvNotConfigured) {
		return authn.PromptEvent{Kind: authn.EventNotEnrolled, Message: err.Error()}, nil
	}

	code, ok := ctaphid.StatusCodeOf(err)
	if !ok {
		return authn.PromptEvent{}, err
	}

	ev := authn.PromptEvent{
		Kind:    EventFor(code),
		Code:    int(code),
		Message: code.String(),
	}
	p.logger.Debug("UV finished", "status", code.String(), "event", ev.Kind.String())

	return ev, nil
}

// NavigateToEnrollment delegates to the configured Enroller.
func (p *Platform) NavigateToEnrollment(ctx context.Context) error {
	if p.enroller == nil {
		return enroll.ErrUnsupported
	}
	return p.enroller.NavigateToEnrollment(ctx)
}

// EventFor maps a CTAP status returned for a UV token request to a prompt
// event.
func EventFor(code ctaphid.StatusCode) authn.EventKind {
	switch code {
	case ctaphid.CTAP2_OK:
		return authn.EventSucceeded
	case ctaphid.CTAP2_ERR_UV_INVALID:
		return authn.EventRejected
	case ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL,
		ctaphid.CTAP2_ERR_OPERATION_DENIED,
		ctaphid.CTAP2_ERR_USER_ACTION_TIMEOUT,
		ctaphid.CTAP2_ERR_ACTION_TIMEOUT:
		return authn.EventCanceled
	case ctaphid.CTAP2_ERR_PIN_AUTH_BLOCKED:
		return authn.EventLockout
	case ctaphid.CTAP2_ERR_UV_BLOCKED, ctaphid.CTAP2_ERR_PIN_BLOCKED:
		return authn.EventLockoutPermanent
	case ctaphid.CTAP2_ERR_PIN_NOT_SET:
		return authn.EventNotEnrolled
	default:
		return authn.EventError
	}
}
