package ctaptypes

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "none", PermissionNone.String())
	assert.Equal(t, "ga", PermissionGetAssertion.String())
	assert.Equal(t, "mc|ga|be", (PermissionMakeCredential | PermissionGetAssertion | PermissionBioEnrollment).String())
	assert.Equal(t, "ga|0x80", (PermissionGetAssertion | 0x80).String())
}

func TestUvModalityBiometric(t *testing.T) {
	assert.True(t, UvModalityFingerprintInternal.Biometric())
	assert.True(t, (UvModalityPresenceInternal | UvModalityFaceprintInternal).Biometric())
	assert.False(t, UvModalityPasscodeInternal.Biometric())
	assert.False(t, UvModality(0).Biometric())
}

func TestGetInfoDecoding(t *testing.T) {
	encMode, err := cbor.CTAP2EncOptions().EncMode()
	require.NoError(t, err)

	b, err := encMode.Marshal(map[int]any{
		1:  []string{"FIDO_2_0", "FIDO_2_1"},
		3:  make([]byte, 16),
		4:  map[string]bool{"uv": true, "pinUvAuthToken": true, "bioEnroll": true},
		6:  []uint{2, 1},
		18: 2,
	})
	require.NoError(t, err)

	var info AuthenticatorGetInfoResponse
	require.NoError(t, cbor.Unmarshal(b, &info))

	assert.True(t, info.Versions.Supports(FIDO_2_1))
	assert.False(t, info.Versions.Supports(FIDO_2_1_PRE))
	assert.Equal(t, PinUvAuthProtocolTwo, info.PreferredPinUvAuthProtocol())
	assert.Equal(t, UvModalityFingerprintInternal, info.UvModality)

	uv, ok := info.Option(OptionUserVerification)
	assert.True(t, ok)
	assert.True(t, uv)

	_, ok = info.Option(OptionClientPIN)
	assert.False(t, ok)
}

func TestPreferredProtocolFallback(t *testing.T) {
	info := &AuthenticatorGetInfoResponse{}
	assert.Equal(t, PinUvAuthProtocolOne, info.PreferredPinUvAuthProtocol())
}
