package ctaptypes

import "github.com/ldclabs/cose/key"

// AuthenticatorClientPINRequest is the authenticatorClientPIN request map.
// Only the members needed for key agreement, retries and UV-based token
// issuance are modeled.
type AuthenticatorClientPINRequest struct {
	PinUvAuthProtocol PinUvAuthProtocol   `cbor:"1,keyasint,omitzero"`
	SubCommand        ClientPINSubCommand `cbor:"2,keyasint"`
	KeyAgreement      key.Key             `cbor:"3,keyasint,omitzero"`
	PinUvAuthParam    []byte              `cbor:"4,keyasint,omitempty"`
	Permissions       Permission          `cbor:"9,keyasint,omitempty"`
	RPID              string              `cbor:"10,keyasint,omitempty"`
}

type AuthenticatorClientPINResponse struct {
	KeyAgreement    key.Key `cbor:"1,keyasint,omitempty"`
	PinUvAuthToken  []byte  `cbor:"2,keyasint,omitempty"`
	PinRetries      uint    `cbor:"3,keyasint,omitempty"`
	PowerCycleState bool    `cbor:"4,keyasint,omitempty"`
	UvRetries       uint    `cbor:"5,keyasint,omitempty"`
}
