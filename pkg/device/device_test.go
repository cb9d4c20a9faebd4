package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaphid/ctaphidtest"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/device"
)

func open(t *testing.T, a *ctaphidtest.Authenticator) (*device.Device, *ctaphidtest.Device) {
	t.Helper()

	fake := ctaphidtest.NewDevice(a.Handle)
	dev, err := device.NewWithTransport("fake", fake)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dev.Close()
	})

	return dev, fake
}

func TestNewWithTransport(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	dev, fake := open(t, a)

	assert.Equal(t, "fake", dev.Path)
	assert.True(t, dev.Info().Versions.Supports(ctaptypes.FIDO_2_1))
	assert.Equal(t, ctaptypes.PinUvAuthProtocolTwo, dev.Info().PreferredPinUvAuthProtocol())
	assert.Equal(t, []ctaphid.Command{ctaphid.CTAPHID_INIT, ctaphid.CTAPHID_CBOR}, fake.Received())

	require.NoError(t, dev.Wink())
}

func TestGetUVRetries(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.UvRetries = 3
	dev, _ := open(t, a)

	retries, err := dev.GetUVRetries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, retries)
}

func TestGetPinUvAuthTokenUsingUV(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	dev, _ := open(t, a)

	var statuses []ctaphid.KeepaliveStatus
	token, err := dev.GetPinUvAuthTokenUsingUV(
		context.Background(),
		ctaptypes.PermissionGetAssertion,
		"example.com",
		func(s ctaphid.KeepaliveStatus) {
			statuses = append(statuses, s)
		},
	)
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.Contains(t, statuses, ctaphid.STATUS_UPNEEDED)

	perm, rpID := a.LastGrant()
	assert.Equal(t, ctaptypes.PermissionGetAssertion, perm)
	assert.Equal(t, "example.com", rpID)
}

func TestGetPinUvAuthTokenUsingUVRejected(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.Verify = ctaphidtest.Always(ctaphid.CTAP2_ERR_UV_INVALID)
	dev, _ := open(t, a)

	_, err := dev.GetPinUvAuthTokenUsingUV(context.Background(), ctaptypes.PermissionGetAssertion, "", nil)
	code, ok := ctaphid.StatusCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ctaphid.CTAP2_ERR_UV_INVALID, code)
}

func TestGetPinUvAuthTokenUsingUVCanceled(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.Verify = ctaphidtest.BlockUntilCanceled
	dev, fake := open(t, a)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := dev.GetPinUvAuthTokenUsingUV(ctx, ctaptypes.PermissionGetAssertion, "", nil)
	code, ok := ctaphid.StatusCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL, code)
	assert.Contains(t, fake.Received(), ctaphid.CTAPHID_CANCEL)
}

func TestGetPinUvAuthTokenUsingUVNotConfigured(t *testing.T) {
	a := ctaphidtest.NewFingerprintAuthenticator()
	a.Info.Options[ctaptypes.OptionUserVerification] = false
	dev, _ := open(t, a)

	_, err := dev.GetPinUvAuthTokenUsingUV(context.Background(), ctaptypes.PermissionGetAssertion, "", nil)
	assert.ErrorIs(t, err, device.ErrUvNotConfigured)

	delete(a.Info.Options, ctaptypes.OptionPinUvAuthToken)
	dev, _ = open(t, a)
	_, err = dev.GetPinUvAuthTokenUsingUV(context.Background(), ctaptypes.PermissionGetAssertion, "", nil)
	assert.ErrorIs(t, err, device.ErrNotSupported)
}

func TestSelectionCanceled(t *testing.T) {
	dev, _ := open(t, ctaphidtest.NewFingerprintAuthenticator())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, dev.Selection(ctx))
}

func TestInfoIsFIDO(t *testing.T) {
	info := &device.Info{UsagePage: 0xf1d0, Usage: 0x01}
	assert.True(t, info.IsFIDO())

	info.Usage = 0x02
	assert.False(t, info.IsFIDO())
}
