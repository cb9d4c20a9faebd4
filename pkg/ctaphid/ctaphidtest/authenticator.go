package ctaphidtest

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/go-ctap/biogate/pkg/crypto"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

// Authenticator emulates a FIDO2 authenticator with built-in user
// verification. Plug Handle into NewDevice.
type Authenticator struct {
	Info      ctaptypes.AuthenticatorGetInfoResponse
	UvRetries uint

	// Verify decides each UV attempt; nil means every attempt matches.
	// Returning CTAP2_OK issues a token.
	Verify func(ctx context.Context) ctaphid.StatusCode

	mu          sync.Mutex
	keyAgree    *crypto.PinUvAuthProtocol
	uvAttempts  int
	permissions ctaptypes.Permission
	rpID        string
}

// NewFingerprintAuthenticator returns an authenticator with an enrolled
// fingerprint and both PIN/UV auth protocols.
func NewFingerprintAuthenticator() *Authenticator {
	return &Authenticator{
		Info: ctaptypes.AuthenticatorGetInfoResponse{
			Versions: ctaptypes.Versions{ctaptypes.FIDO_2_0, ctaptypes.FIDO_2_1},
			Options: map[ctaptypes.Option]bool{
				ctaptypes.OptionUserPresence:     true,
				ctaptypes.OptionUserVerification: true,
				ctaptypes.OptionPinUvAuthToken:   true,
				ctaptypes.OptionBioEnroll:        true,
				ctaptypes.OptionClientPIN:        true,
			},
			PinUvAuthProtocols: []ctaptypes.PinUvAuthProtocol{ctaptypes.PinUvAuthProtocolTwo, ctaptypes.PinUvAuthProtocolOne},
			UvModality:         ctaptypes.UvModalityFingerprintInternal,
		},
		UvRetries: 5,
	}
}

// UVAttempts is the number of UV token requests received.
func (a *Authenticator) UVAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.uvAttempts
}

// LastGrant returns the permissions and RP ID of the last UV request.
func (a *Authenticator) LastGrant() (ctaptypes.Permission, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.permissions, a.rpID
}

func (a *Authenticator) Handle(
	ctx context.Context,
	cmd ctaptypes.Command,
	params []byte,
	keepalive func(ctaphid.KeepaliveStatus),
) (ctaphid.StatusCode, []byte) {
	switch cmd {
	case ctaptypes.AuthenticatorGetInfo:
		return encode(&a.Info)
	case ctaptypes.AuthenticatorSelection:
		keepalive(ctaphid.STATUS_UPNEEDED)
		<-ctx.Done()
		return ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL, nil
	case ctaptypes.AuthenticatorClientPIN:
		var req ctaptypes.AuthenticatorClientPINRequest
		if err := cbor.Unmarshal(params, &req); err != nil {
			return ctaphid.CTAP2_ERR_INVALID_CBOR, nil
		}
		return a.clientPIN(ctx, &req, keepalive)
	default:
		return ctaphid.CTAP1_ERR_INVALID_COMMAND, nil
	}
}

func (a *Authenticator) clientPIN(
	ctx context.Context,
	req *ctaptypes.AuthenticatorClientPINRequest,
	keepalive func(ctaphid.KeepaliveStatus),
) (ctaphid.StatusCode, []byte) {
	switch req.SubCommand {
	case ctaptypes.ClientPINSubCommandGetUVRetries:
		return encode(&ctaptypes.AuthenticatorClientPINResponse{UvRetries: a.UvRetries})
	case ctaptypes.ClientPINSubCommandGetKeyAgreement:
		p, err := crypto.NewPinUvAuthProtocol(req.PinUvAuthProtocol)
		if err != nil {
			return ctaphid.CTAP1_ERR_INVALID_PARAMETER, nil
		}

		a.mu.Lock()
		a.keyAgree = p
		a.mu.Unlock()

		return encode(&ctaptypes.AuthenticatorClientPINResponse{KeyAgreement: p.PublicKey()})
	case ctaptypes.ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions:
		a.mu.Lock()
		a.uvAttempts++
		a.permissions = req.Permissions
		a.rpID = req.RPID
		p := a.keyAgree
		a.mu.Unlock()

		if p == nil || req.KeyAgreement == nil {
			return ctaphid.CTAP2_ERR_MISSING_PARAMETER, nil
		}

		keepalive(ctaphid.STATUS_UPNEEDED)

		code := ctaphid.CTAP2_OK
		if a.Verify != nil {
			code = a.Verify(ctx)
		}
		if ctx.Err() != nil {
			return ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL, nil
		}
		if code != ctaphid.CTAP2_OK {
			return code, nil
		}

		secret, err := p.ECDH(req.KeyAgreement)
		if err != nil {
			return ctaphid.CTAP1_ERR_INVALID_PARAMETER, nil
		}

		token := make([]byte, 32)
		_, _ = rand.Read(token)

		enc, err := p.Encrypt(secret, token)
		if err != nil {
			return ctaphid.CTAP1_ERR_OTHER, nil
		}

		return encode(&ctaptypes.AuthenticatorClientPINResponse{PinUvAuthToken: enc})
	default:
		return ctaphid.CTAP2_ERR_INVALID_SUBCOMMAND, nil
	}
}

// BlockUntilCanceled is a Verify func for a user who never touches the
// sensor.
func BlockUntilCanceled(ctx context.Context) ctaphid.StatusCode {
	<-ctx.Done()
	return ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL
}

// Always returns a Verify func that always yields code.
func Always(code ctaphid.StatusCode) func(context.Context) ctaphid.StatusCode {
	return func(context.Context) ctaphid.StatusCode {
		return code
	}
}

func encode(v any) (ctaphid.StatusCode, []byte) {
	encMode, _ := cbor.CTAP2EncOptions().EncMode()

	b, err := encMode.Marshal(v)
	if err != nil {
		return ctaphid.CTAP1_ERR_OTHER, nil
	}
	return ctaphid.CTAP2_OK, b
}
