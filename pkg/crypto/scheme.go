package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"slices"

	"golang.org/x/crypto/hkdf"

	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

type scheme interface {
	kdf(z []byte) ([]byte, error)
	encrypt(sharedSecret, plaintext []byte) ([]byte, error)
	decrypt(sharedSecret, ciphertext []byte) ([]byte, error)
	authenticate(k, message []byte) []byte
}

func schemeFor(number ctaptypes.PinUvAuthProtocol) (scheme, error) {
	switch number {
	case ctaptypes.PinUvAuthProtocolOne:
		return protocolOne{}, nil
	case ctaptypes.PinUvAuthProtocolTwo:
		return protocolTwo{}, nil
	default:
		return nil, ErrInvalidAuthProtocol
	}
}

func cbcEncrypt(k, iv, plaintext []byte) ([]byte, error) {
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, ErrInvalidBlockLength
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("cannot create new AES cipher: %w", err)
	}

	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

func cbcDecrypt(k, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidBlockLength
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("cannot create new AES cipher: %w", err)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

func hmacSHA256(k, message []byte) []byte {
	h := hmac.New(sha256.New, k)
	h.Write(message)
	return h.Sum(nil)
}

// protocolOne: SHA-256 KDF, AES-256-CBC with a zero IV, HMAC truncated to
// 16 bytes.
type protocolOne struct{}

func (protocolOne) kdf(z []byte) ([]byte, error) {
	sum := sha256.Sum256(z)
	return sum[:], nil
}

func (protocolOne) encrypt(sharedSecret, plaintext []byte) ([]byte, error) {
	if len(sharedSecret) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return cbcEncrypt(sharedSecret, make([]byte, aes.BlockSize), plaintext)
}

func (protocolOne) decrypt(sharedSecret, ciphertext []byte) ([]byte, error) {
	if len(sharedSecret) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return cbcDecrypt(sharedSecret, make([]byte, aes.BlockSize), ciphertext)
}

func (protocolOne) authenticate(k, message []byte) []byte {
	return hmacSHA256(k, message)[:16]
}

// protocolTwo: HKDF-SHA-256 split into an HMAC key and an AES key,
// AES-256-CBC with a random IV prepended, full HMAC.
type protocolTwo struct{}

func (protocolTwo) kdf(z []byte) ([]byte, error) {
	salt := make([]byte, 32)

	hmacKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, z, salt, []byte("CTAP2 HMAC key")), hmacKey); err != nil {
		return nil, fmt.Errorf("cannot derive HMAC key: %w", err)
	}

	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, z, salt, []byte("CTAP2 AES key")), aesKey); err != nil {
		return nil, fmt.Errorf("cannot derive AES key: %w", err)
	}

	return slices.Concat(hmacKey, aesKey), nil
}

func (protocolTwo) encrypt(sharedSecret, plaintext []byte) ([]byte, error) {
	if len(sharedSecret) != 64 {
		return nil, ErrInvalidKeyLength
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("cannot generate random iv: %w", err)
	}

	ct, err := cbcEncrypt(sharedSecret[32:], iv, plaintext)
	if err != nil {
		return nil, err
	}
	return slices.Concat(iv, ct), nil
}

func (protocolTwo) decrypt(sharedSecret, ciphertext []byte) ([]byte, error) {
	if len(sharedSecret) != 64 {
		return nil, ErrInvalidKeyLength
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, ErrInvalidBlockLength
	}
	return cbcDecrypt(sharedSecret[32:], ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:])
}

// authenticate uses only the HMAC half when given the 64-byte shared
// secret; a 32-byte pinUvAuthToken is used as is.
func (protocolTwo) authenticate(k, message []byte) []byte {
	return hmacSHA256(k[:32], message)
}
