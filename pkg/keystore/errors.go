package keystore

import (
	"errors"
)

var (
	ErrKeyStore          = errors.New("keystore: key store failure")
	ErrKeyNotFound       = errors.New("keystore: key not found")
	ErrInvalidKey        = errors.New("keystore: invalid key material")
	ErrInvalidCiphertext = errors.New("keystore: invalid ciphertext")
	ErrInvalidPadding    = errors.New("keystore: invalid padding")
)

// CipherError reports a failed encrypt or decrypt. It is kept apart from
// authentication outcomes so that "not authenticated" and "authenticated
// but the cipher failed" never look alike.
type CipherError struct {
	Op    string
	Alias string
	Err   error
}

func newCipherError(op, alias string, err error) *CipherError {
	return &CipherError{
		Op:    op,
		Alias: alias,
		Err:   err,
	}
}

func (e *CipherError) Error() string {
	return e.Op + " with key " + `"` + e.Alias + `"` + " failed: " + e.Err.Error()
}

func (e *CipherError) Unwrap() error {
	return e.Err
}
