package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"slices"
)

// KeySize is the AES-256 key length.
const KeySize = 32

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return slices.Concat(b, bytes.Repeat([]byte{byte(n)}, n))
}

// pkcs7Unpad inspects the last blockSize bytes in constant time so the
// time taken does not reveal where the padding went wrong.
func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 || blockSize > 255 {
		return nil, ErrInvalidPadding
	}

	n := b[len(b)-1]
	good := subtle.ConstantTimeLessOrEq(1, int(n)) & subtle.ConstantTimeLessOrEq(int(n), blockSize)
	for i := 0; i < blockSize; i++ {
		// inPad is 1 for the trailing n bytes only.
		inPad := subtle.ConstantTimeLessOrEq(i+1, int(n))
		eq := subtle.ConstantTimeByteEq(b[len(b)-1-i], n)
		good &= subtle.ConstantTimeSelect(inPad, eq, 1)
	}
	if good != 1 {
		return nil, ErrInvalidPadding
	}

	return b[:len(b)-int(n)], nil
}

// sealCBC encrypts plaintext with AES-CBC under a fresh random IV and
// returns IV || ciphertext.
func sealCBC(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cannot create new AES cipher: %w", err)
	}

	iv := make([]byte, block.BlockSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("cannot generate random iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	return slices.Concat(iv, ciphertext), nil
}

// openCBC reverses sealCBC.
func openCBC(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cannot create new AES cipher: %w", err)
	}

	bs := block.BlockSize()
	if len(data) < 2*bs || len(data)%bs != 0 {
		return nil, ErrInvalidCiphertext
	}

	iv := data[:bs]
	ciphertext := data[bs:]
	plaintext := make([]byte, len(ciphertext))

	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, bs)
}
