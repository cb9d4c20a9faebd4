package ctaptypes

// Command is the first byte of an authenticator API request.
type Command byte

const (
	AuthenticatorGetInfo                Command = 0x04
	AuthenticatorClientPIN              Command = 0x06
	AuthenticatorBioEnrollment          Command = 0x09
	AuthenticatorSelection              Command = 0x0b
	PrototypeAuthenticatorBioEnrollment Command = 0x40
)

type ClientPINSubCommand byte

const (
	ClientPINSubCommandGetPINRetries ClientPINSubCommand = iota + 1
	ClientPINSubCommandGetKeyAgreement
	ClientPINSubCommandSetPIN
	ClientPINSubCommandChangePIN
	ClientPINSubCommandGetPinToken
	ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions
	ClientPINSubCommandGetUVRetries
	_
	ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions
)

// Option is a key of the authenticatorGetInfo options map.
type Option string

const (
	OptionPlatformDevice              Option = "plat"
	OptionClientPIN                   Option = "clientPin"
	OptionUserPresence                Option = "up"
	OptionUserVerification            Option = "uv"
	OptionPinUvAuthToken              Option = "pinUvAuthToken"
	OptionBioEnroll                   Option = "bioEnroll"
	OptionUserVerificationMgmtPreview Option = "userVerificationMgmtPreview"
	OptionUvBioEnroll                 Option = "uvBioEnroll"
	OptionAlwaysUv                    Option = "alwaysUv"
)

// Permission is a pinUvAuthToken permission bit.
type Permission byte

const (
	PermissionNone                       Permission = 0x00
	PermissionMakeCredential             Permission = 0x01
	PermissionGetAssertion               Permission = 0x02
	PermissionCredentialManagement       Permission = 0x04
	PermissionBioEnrollment              Permission = 0x08
	PermissionLargeBlobWrite             Permission = 0x10
	PermissionAuthenticatorConfiguration Permission = 0x20
)

// UvModality is a bit of the FIDO user verification method registry.
type UvModality uint

const (
	UvModalityPresenceInternal    UvModality = 0x00000001
	UvModalityFingerprintInternal UvModality = 0x00000002
	UvModalityPasscodeInternal    UvModality = 0x00000004
	UvModalityVoiceprintInternal  UvModality = 0x00000008
	UvModalityFaceprintInternal   UvModality = 0x00000010
	UvModalityEyeprintInternal    UvModality = 0x00000040
	UvModalityPatternInternal     UvModality = 0x00000080
	UvModalityHandprintInternal   UvModality = 0x00000100
)

// Biometric reports whether the modality includes a biometric method.
func (m UvModality) Biometric() bool {
	const biometric = UvModalityFingerprintInternal | UvModalityVoiceprintInternal |
		UvModalityFaceprintInternal | UvModalityEyeprintInternal | UvModalityHandprintInternal
	return m&biometric != 0
}
