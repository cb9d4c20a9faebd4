package ctaptypes

import (
	"slices"

	"github.com/google/uuid"
)

type (
	Version           string
	Versions          []Version
	PinUvAuthProtocol uint
)

const (
	FIDO_2_0     Version = "FIDO_2_0"
	FIDO_2_1_PRE Version = "FIDO_2_1_PRE"
	FIDO_2_1     Version = "FIDO_2_1"
	FIDO_2_2     Version = "FIDO_2_2"
	U2F_V2       Version = "U2F_V2"
)

const (
	PinUvAuthProtocolOne PinUvAuthProtocol = iota + 1
	PinUvAuthProtocolTwo
)

// AuthenticatorGetInfoResponse holds the members of the authenticatorGetInfo
// response relevant to user verification.
type AuthenticatorGetInfoResponse struct {
	Versions                    Versions            `cbor:"1,keyasint"`
	Extensions                  []string            `cbor:"2,keyasint,omitempty"`
	AAGUID                      uuid.UUID           `cbor:"3,keyasint"`
	Options                     map[Option]bool     `cbor:"4,keyasint,omitempty"`
	MaxMsgSize                  uint                `cbor:"5,keyasint,omitempty"`
	PinUvAuthProtocols          []PinUvAuthProtocol `cbor:"6,keyasint,omitempty"`
	Transports                  []string            `cbor:"9,keyasint,omitempty"`
	ForcePinChange              bool                `cbor:"12,keyasint,omitempty"`
	MinPinLength                uint                `cbor:"13,keyasint,omitempty"`
	FirmwareVersion             uint                `cbor:"14,keyasint,omitempty"`
	PreferredPlatformUvAttempts uint                `cbor:"17,keyasint,omitempty"`
	UvModality                  UvModality          `cbor:"18,keyasint,omitempty"`
	UvCountSinceLastPinEntry    uint                `cbor:"23,keyasint,omitempty"`
}

func (vv Versions) Supports(ver Version) bool {
	return slices.Contains(vv, ver)
}

// Option returns the value of an option and whether the authenticator
// reported it at all.
func (r *AuthenticatorGetInfoResponse) Option(o Option) (value, present bool) {
	value, present = r.Options[o]
	return value, present
}

// PreferredPinUvAuthProtocol returns the first protocol the authenticator
// lists, falling back to protocol one as CTAP 2.0 devices do.
func (r *AuthenticatorGetInfoResponse) PreferredPinUvAuthProtocol() PinUvAuthProtocol {
	if len(r.PinUvAuthProtocols) == 0 {
		return PinUvAuthProtocolOne
	}
	return r.PinUvAuthProtocols[0]
}
