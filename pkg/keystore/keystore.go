// Package keystore encrypts and decrypts secrets with a symmetric key held
// in a KeyStorage. Ciphertexts are AES-256-CBC with PKCS#7 padding laid out
// as IV || ciphertext; the string helpers base64 them for storage or display.
package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ctap/biogate/pkg/options"
)

// DefaultAlias is the key alias used when none is configured.
const DefaultAlias = "MyKeyAlias"

type Keystore struct {
	alias   string
	storage KeyStorage
	logger  *slog.Logger

	// mu makes "create the key if absent" atomic within the process.
	mu sync.Mutex
}

func New(storage KeyStorage, alias string, opts ...options.Option) *Keystore {
	oo := options.NewOptions(opts...)

	if alias == "" {
		alias = DefaultAlias
	}

	return &Keystore{
		alias:   alias,
		storage: storage,
		logger:  oo.Logger,
	}
}

// Alias returns the alias of the managed key.
func (k *Keystore) Alias() string {
	return k.alias
}

// HasKey reports whether the key exists.
func (k *Keystore) HasKey() (bool, error) {
	_, err := k.storage.Load(k.alias)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}
	return true, nil
}

func (k *Keystore) loadOrCreate() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, err := k.storage.Load(k.alias)
	if err == nil {
		k.logger.Debug("using existing key", "alias", k.alias)
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}

	k.logger.Debug("generating a new symmetric key", "alias", k.alias)
	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cannot generate key: %w", err)
	}
	if err := k.storage.Store(k.alias, key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}

	return key, nil
}

func (k *Keystore) load() ([]byte, error) {
	key, err := k.storage.Load(k.alias)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}
	return key, nil
}

// Encrypt seals plaintext, creating the key on first use. Two calls with the
// same plaintext yield different ciphertexts.
func (k *Keystore) Encrypt(plaintext []byte) ([]byte, error) {
	key, err := k.loadOrCreate()
	if err != nil {
		return nil, newCipherError("encrypt", k.alias, err)
	}
	if len(key) != KeySize {
		return nil, newCipherError("encrypt", k.alias, ErrInvalidKey)
	}

	ciphertext, err := sealCBC(key, plaintext)
	if err != nil {
		return nil, newCipherError("encrypt", k.alias, err)
	}

	return ciphertext, nil
}

// Decrypt opens a ciphertext produced by Encrypt. It never creates a key.
func (k *Keystore) Decrypt(ciphertext []byte) ([]byte, error) {
	key, err := k.load()
	if err != nil {
		return nil, newCipherError("decrypt", k.alias, err)
	}
	if len(key) != KeySize {
		return nil, newCipherError("decrypt", k.alias, ErrInvalidKey)
	}

	plaintext, err := openCBC(key, ciphertext)
	if err != nil {
		return nil, newCipherError("decrypt", k.alias, err)
	}

	return plaintext, nil
}

// EncryptString encrypts a UTF-8 string and returns base64 text.
func (k *Keystore) EncryptString(plaintext string) (string, error) {
	b, err := k.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecryptString reverses EncryptString.
func (k *Keystore) DecryptString(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", newCipherError("decrypt", k.alias, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err))
	}

	plaintext, err := k.Decrypt(b)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeleteKey removes the key. It returns false if there was none.
func (k *Keystore) DeleteKey() (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ok, err := k.storage.Delete(k.alias)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}
	if !ok {
		k.logger.Debug("no key to delete", "alias", k.alias)
	}
	return ok, nil
}
