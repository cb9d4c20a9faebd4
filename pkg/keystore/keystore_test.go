package keystore

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var payloads = [][]byte{
	{},
	[]byte("a"),
	[]byte("hello world!"),
	[]byte("exactly sixteen!"),
	make([]byte, 100),
}

func randomPayloads(t *testing.T) [][]byte {
	t.Helper()

	r := rand.New(rand.NewSource(42))
	out := make([][]byte, 0, 32)
	for range 32 {
		b := make([]byte, r.Intn(200))
		_, err := r.Read(b)
		require.NoError(t, err)
		out = append(out, b)
	}
	return append(out, payloads...)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ks := New(NewMemoryStorage(), "")

	for _, p := range randomPayloads(t) {
		ct, err := ks.Encrypt(p)
		require.NoError(t, err)
		assert.Zero(t, len(ct)%16)
		assert.Greater(t, len(ct), len(p))

		pt, err := ks.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, string(p), string(pt))
	}
}

func TestEncryptIsNotDeterministic(t *testing.T) {
	ks := New(NewMemoryStorage(), "")
	p := []byte("hello world!")

	a, err := ks.Encrypt(p)
	require.NoError(t, err)
	b, err := ks.Encrypt(p)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a[:16], b[:16], "IVs must differ")

	for _, ct := range [][]byte{a, b} {
		pt, err := ks.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, p, pt)
	}
}

func TestKeyCreatedLazily(t *testing.T) {
	ks := New(NewMemoryStorage(), "lazy")

	ok, err := ks.HasKey()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ks.Encrypt([]byte("x"))
	require.NoError(t, err)

	ok, err = ks.HasKey()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDecryptWithoutKey(t *testing.T) {
	ks := New(NewMemoryStorage(), "")

	_, err := ks.Decrypt(make([]byte, 32))
	var cerr *CipherError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "decrypt", cerr.Op)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	ok, err := ks.HasKey()
	require.NoError(t, err)
	assert.False(t, ok, "decrypt must not create a key")
}

func TestDecryptMalformed(t *testing.T) {
	ks := New(NewMemoryStorage(), "")
	ct, err := ks.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = ks.Decrypt(ct[:16])
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = ks.Decrypt(ct[:len(ct)-1])
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecryptWithOtherKeyFails(t *testing.T) {
	storage := NewMemoryStorage()
	ks := New(storage, "")
	ct, err := ks.Encrypt([]byte("secret that spans more than one block"))
	require.NoError(t, err)

	deleted, err := ks.DeleteKey()
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = ks.Encrypt(nil)
	require.NoError(t, err)

	pt, err := ks.Decrypt(ct)
	if err == nil {
		// Random padding can occasionally validate; the plaintext must still differ.
		assert.NotEqual(t, "secret that spans more than one block", string(pt))
		return
	}
	var cerr *CipherError
	assert.True(t, errors.As(err, &cerr))
}

func TestStringHelpers(t *testing.T) {
	ks := New(NewMemoryStorage(), "")

	enc, err := ks.EncryptString("비밀번호 1234")
	require.NoError(t, err)

	dec, err := ks.DecryptString(enc)
	require.NoError(t, err)
	assert.Equal(t, "비밀번호 1234", dec)

	_, err = ks.DecryptString("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDeleteKey(t *testing.T) {
	ks := New(NewMemoryStorage(), "")

	ok, err := ks.DeleteKey()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ks.Encrypt([]byte("x"))
	require.NoError(t, err)

	ok, err = ks.DeleteKey()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ks.DeleteKey()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "keystore.cbor")

	ks := New(NewFileStorage(path), "file")
	ct, err := ks.Encrypt([]byte("persisted"))
	require.NoError(t, err)

	// A fresh instance over the same file sees the key.
	ks2 := New(NewFileStorage(path), "file")
	pt, err := ks2.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(pt))

	other := New(NewFileStorage(path), "other")
	ok, err := other.HasKey()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ks2.DeleteKey()
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = ks.Decrypt(ct)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyringStorage(t *testing.T) {
	keyring.MockInit()

	ks := New(NewKeyringStorage("biogate-test"), "")
	ct, err := ks.Encrypt([]byte("in the keyring"))
	require.NoError(t, err)

	pt, err := ks.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "in the keyring", string(pt))

	ok, err := ks.DeleteKey()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ks.DeleteKey()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidStoredKey(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Store(DefaultAlias, []byte("short")))

	_, err := New(storage, "").Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
