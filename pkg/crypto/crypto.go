// Package crypto implements the platform side of the CTAP2 PIN/UV auth
// protocols: ECDH key agreement on P-256 and the per-protocol KDF,
// encryption and message authentication.
package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/go-ctap/biogate/pkg/ctaptypes"

	"github.com/ldclabs/cose/iana"
	"github.com/ldclabs/cose/key"
	coseecdh "github.com/ldclabs/cose/key/ecdh"
)

var (
	ErrInvalidAuthProtocol = errors.New("crypto: invalid pinUvAuth protocol")
	ErrInvalidKeyLength    = errors.New("crypto: invalid shared secret length")
	ErrInvalidBlockLength  = errors.New("crypto: data is not a multiple of the block size")
)

// PinUvAuthProtocol holds an ephemeral P-256 key pair for one key
// agreement with an authenticator.
type PinUvAuthProtocol struct {
	Number     ctaptypes.PinUvAuthProtocol
	scheme     scheme
	privateKey *ecdh.PrivateKey
	coseKey    key.Key
}

func NewPinUvAuthProtocol(number ctaptypes.PinUvAuthProtocol) (*PinUvAuthProtocol, error) {
	s, err := schemeFor(number)
	if err != nil {
		return nil, err
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cannot generate P-256 keypair: %w", err)
	}

	pub, err := coseecdh.KeyFromPublic(priv.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("cannot convert public key to COSE_Key: %w", err)
	}
	// ECDH-ES+HKDF-256, as required for the keyAgreement member.
	if err := pub.Set(iana.KeyParameterAlg, -25); err != nil {
		return nil, fmt.Errorf("cannot set alg parameter for COSE_Key: %w", err)
	}
	// Some authenticators reject a COSE_Key carrying anything beyond the
	// required parameters.
	delete(pub, iana.KeyParameterKid)

	return &PinUvAuthProtocol{
		Number:     number,
		scheme:     s,
		privateKey: priv,
		coseKey:    pub,
	}, nil
}

// PublicKey returns the COSE_Key sent as keyAgreement.
func (p *PinUvAuthProtocol) PublicKey() key.Key {
	return p.coseKey
}

// ECDH derives the shared secret with the peer key.
func (p *PinUvAuthProtocol) ECDH(peer key.Key) ([]byte, error) {
	peerPub, err := coseecdh.KeyToPublic(peer)
	if err != nil {
		return nil, fmt.Errorf("cannot convert peer COSE_Key: %w", err)
	}

	z, err := p.privateKey.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("cannot derive shared point: %w", err)
	}

	return p.scheme.kdf(z)
}

// Encapsulate returns our public key together with the shared secret.
func (p *PinUvAuthProtocol) Encapsulate(peer key.Key) (key.Key, []byte, error) {
	secret, err := p.ECDH(peer)
	if err != nil {
		return nil, nil, err
	}
	return p.coseKey, secret, nil
}

func (p *PinUvAuthProtocol) Encrypt(sharedSecret, plaintext []byte) ([]byte, error) {
	return p.scheme.encrypt(sharedSecret, plaintext)
}

func (p *PinUvAuthProtocol) Decrypt(sharedSecret, ciphertext []byte) ([]byte, error) {
	return p.scheme.decrypt(sharedSecret, ciphertext)
}

func (p *PinUvAuthProtocol) Authenticate(k, message []byte) []byte {
	return p.scheme.authenticate(k, message)
}

// Authenticate computes pinUvAuthParam for message under the given protocol.
func Authenticate(number ctaptypes.PinUvAuthProtocol, k, message []byte) ([]byte, error) {
	s, err := schemeFor(number)
	if err != nil {
		return nil, err
	}
	return s.authenticate(k, message), nil
}
