package keystore

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/zalando/go-keyring"
)

// KeyStorage holds raw symmetric keys by alias.
type KeyStorage interface {
	// Load returns ErrKeyNotFound when alias has no key.
	Load(alias string) ([]byte, error)
	Store(alias string, key []byte) error
	// Delete reports whether a key existed.
	Delete(alias string) (bool, error)
}

// MemoryStorage keeps keys for the lifetime of the process.
type MemoryStorage struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{keys: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(alias string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[alias]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(key), nil
}

func (s *MemoryStorage) Store(alias string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[alias] = bytes.Clone(key)
	return nil
}

func (s *MemoryStorage) Delete(alias string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.keys[alias]
	delete(s.keys, alias)
	return ok, nil
}

const keyFileVersion = 1

type keyFile struct {
	Version uint                `cbor:"1,keyasint"`
	Entries map[string]keyEntry `cbor:"2,keyasint"`
}

type keyEntry struct {
	ID        uuid.UUID `cbor:"1,keyasint"`
	Key       []byte    `cbor:"2,keyasint"`
	CreatedAt time.Time `cbor:"3,keyasint"`
}

// FileStorage keeps keys in a single CBOR file readable only by its owner.
// It is the software fallback for hosts without an OS keyring.
type FileStorage struct {
	path    string
	encMode cbor.EncMode
	mu      sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	encMode, _ := cbor.CanonicalEncOptions().EncMode()
	return &FileStorage{path: path, encMode: encMode}
}

func (s *FileStorage) read() (*keyFile, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &keyFile{Version: keyFileVersion, Entries: make(map[string]keyEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read key file: %w", err)
	}

	var f keyFile
	if err := cbor.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("cannot decode key file: %w", err)
	}
	if f.Version != keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version %d", f.Version)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]keyEntry)
	}

	return &f, nil
}

func (s *FileStorage) write(f *keyFile) error {
	b, err := s.encMode.Marshal(f)
	if err != nil {
		return fmt.Errorf("cannot encode key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("cannot create key directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("cannot write key file: %w", err)
	}

	return os.Chmod(s.path, 0o600)
}

func (s *FileStorage) Load(alias string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}

	e, ok := f.Entries[alias]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return e.Key, nil
}

func (s *FileStorage) Store(alias string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}

	f.Entries[alias] = keyEntry{
		ID:        uuid.New(),
		Key:       bytes.Clone(key),
		CreatedAt: time.Now().UTC(),
	}
	return s.write(f)
}

func (s *FileStorage) Delete(alias string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return false, err
	}

	if _, ok := f.Entries[alias]; !ok {
		return false, nil
	}
	delete(f.Entries, alias)

	return true, s.write(f)
}

// KeyringStorage keeps keys in the OS credential store (Secret Service,
// macOS Keychain, Windows Credential Manager).
type KeyringStorage struct {
	service string
}

func NewKeyringStorage(service string) *KeyringStorage {
	return &KeyringStorage{service: service}
}

func (s *KeyringStorage) Load(alias string) ([]byte, error) {
	secret, err := keyring.Get(s.service, alias)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return key, nil
}

func (s *KeyringStorage) Store(alias string, key []byte) error {
	return keyring.Set(s.service, alias, base64.StdEncoding.EncodeToString(key))
}

func (s *KeyringStorage) Delete(alias string) (bool, error) {
	err := keyring.Delete(s.service, alias)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
