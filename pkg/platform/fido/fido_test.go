package fido_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaphid/ctaphidtest"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
	"github.com/go-ctap/biogate/pkg/platform/fido"
)

func newPlatform(t *testing.T, a *ctaphidtest.Authenticator, opts ...options.Option) *fido.Platform {
	t.Helper()

	dev, err := device.NewWithTransport("fake", ctaphidtest.NewDevice(a.Handle), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dev.Close()
	})

	return fido.New(dev, nil, opts...)
}

func TestProbeCapability(t *testing.T) {
	tests := []struct {
		name   string
		modify func(a *ctaphidtest.Authenticator)
		want   capability.Probe
	}{
		{
			name:   "enrolled fingerprint",
			modify: func(*ctaphidtest.Authenticator) {},
			want:   capability.ProbeSuccess,
		},
		{
			name: "no built-in UV",
			modify: func(a *ctaphidtest.Authenticator) {
				delete(a.Info.Options, ctaptypes.OptionUserVerification)
			},
			want: capability.ProbeNoHardware,
		},
		{
			name: "passcode only",
			modify: func(a *ctaphidtest.Authenticator) {
				a.Info.UvModality = ctaptypes.UvModalityPasscodeInternal
			},
			want: capability.ProbeNoHardware,
		},
		{
			name: "UV not configured",
			modify: func(a *ctaphidtest.Authenticator) {
				a.Info.Options[ctaptypes.OptionUserVerification] = false
			},
			want: capability.ProbeNoneEnrolled,
		},
		{
			name: "no fingerprint enrolled",
			modify: func(a *ctaphidtest.Authenticator) {
				a.Info.Options[ctaptypes.OptionBioEnroll] = false
			},
			want: capability.ProbeNoneEnrolled,
		},
		{
			name: "no pinUvAuthToken",
			modify: func(a *ctaphidtest.Authenticator) {
				delete(a.Info.Options, ctaptypes.OptionPinUvAuthToken)
			},
			want: capability.ProbeUnsupported,
		},
		{
			name: "UV retries exhausted",
			modify: func(a *ctaphidtest.Authenticator) {
				a.UvRetries = 0
			},
			want: capability.ProbeHardwareUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ctaphidtest.NewFingerprintAuthenticator()
			tt.modify(a)

			probe, err := newPlatform(t, a).ProbeCapability(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, probe)
		})
	}
}

func TestPresentPromptSucceeded(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()

	var notices []options.PromptNotice
	p := newPlatform(t, a,
		options.WithRPID("vault.example"),
		options.WithPromptNotifier(func(n options.PromptNotice) {
			notices = append(notices, n)
		}),
	)

	info := authn.DefaultPromptInfo()
	info.RequireConfirmation = true
	ev, err := p.PresentPrompt(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, authn.EventSucceeded, ev.Kind)
	require.Len(t, notices, 1)
	assert.Equal(t, info.Title, notices[0].Title)
	assert.Equal(t, "Close", notices[0].NegativeButtonLabel)
	assert.True(t, notices[0].RequireConfirmation)

	perm, rpID := a.LastGrant()
	assert.Equal(t, ctaptypes.PermissionGetAssertion, perm)
	assert.Equal(t, "vault.example", rpID)
}

func TestPresentPromptStatuses(t *testing.T) {
	tests := []struct {
		code ctaphid.StatusCode
		want authn.EventKind
	}{
		{ctaphid.CTAP2_ERR_UV_INVALID, authn.EventRejected},
		{ctaphid.CTAP2_ERR_OPERATION_DENIED, authn.EventCanceled},
		{ctaphid.CTAP2_ERR_USER_ACTION_TIMEOUT, authn.EventCanceled},
		{ctaphid.CTAP2_ERR_PIN_AUTH_BLOCKED, authn.EventLockout},
		{ctaphid.CTAP2_ERR_UV_BLOCKED, authn.EventLockoutPermanent},
		{ctaphid.CTAP2_ERR_PIN_BLOCKED, authn.EventLockoutPermanent},
		{ctaphid.CTAP2_ERR_PIN_NOT_SET, authn.EventNotEnrolled},
		{ctaphid.CTAP1_ERR_OTHER, authn.EventError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			a := ctaphidtest.NewFingerprintAuthenticator()
			a.Verify = ctaphidtest.Always(tt.code)

			ev, err := newPlatform(t, a).PresentPrompt(context.Background(), authn.DefaultPromptInfo())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Kind)
			assert.Equal(t, int(tt.code), ev.Code)
			assert.NotEmpty(t, ev.Message)
		})
	}
}

func TestPresentPromptCanceled(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.Verify = ctaphidtest.BlockUntilCanceled
	p := newPlatform(t, a)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ev, err := p.PresentPrompt(ctx, authn.DefaultPromptInfo())
	require.NoError(t, err)
	assert.Equal(t, authn.EventCanceled, ev.Kind)
}

func TestPresentPromptNotConfigured(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.Info.Options[ctaptypes.OptionUserVerification] = false

	ev, err := newPlatform(t, a).PresentPrompt(context.Background(), authn.DefaultPromptInfo())
	require.NoError(t, err)
	assert.Equal(t, authn.EventNotEnrolled, ev.Kind)
	assert.Zero(t, a.UVAttempts())
}

func TestAuthenticatorOverFIDO(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	fails := 2
	a.Verify = func(context.Context) ctaphid.StatusCode {
		if fails > 0 {
			fails--
			return ctaphid.CTAP2_ERR_UV_INVALID
		}
		return ctaphid.CTAP2_OK
	}

	auth := authn.NewAuthenticator(newPlatform(t, a), authn.DefaultPromptInfo())
	now := time.Now()

	assert.Equal(t, authn.Rejected, auth.Authenticate(context.Background(), now).Kind)
	assert.Equal(t, authn.Rejected, auth.Authenticate(context.Background(), now).Kind)
	assert.Equal(t, 2, auth.State().ConsecutiveFailures)

	assert.Equal(t, authn.Success, auth.Authenticate(context.Background(), now).Kind)
	assert.Zero(t, auth.State().ConsecutiveFailures)
	assert.Equal(t, 3, a.UVAttempts())
}

type enrollerFunc func(ctx context.Context) error

func (f enrollerFunc) NavigateToEnrollment(ctx context.Context) error {
	return f(ctx)
}

func TestNavigateToEnrollment(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	p := newPlatform(t, a)
	assert.ErrorIs(t, p.NavigateToEnrollment(context.Background()), enroll.ErrUnsupported)

	dev, err := device.NewWithTransport("fake", ctaphidtest.NewDevice(a.Handle))
	require.NoError(t, err)
	defer dev.Close()

	boom := errors.New("boom")
	p = fido.New(dev, enrollerFunc(func(context.Context) error { return boom }))
	assert.ErrorIs(t, p.NavigateToEnrollment(context.Background()), boom)
}

func TestEventForOK(t *testing.T) {
	assert.Equal(t, authn.EventSucceeded, fido.EventFor(ctaphid.CTAP2_OK))
	assert.Equal(t, authn.EventCanceled, fido.EventFor(ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL))
}
