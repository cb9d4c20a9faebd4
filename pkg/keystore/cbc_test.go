package keystore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCS7(t *testing.T) {
	for n := range 40 {
		b := make([]byte, n)
		padded := pkcs7Pad(b, 16)
		require.Zero(t, len(padded)%16)
		require.Greater(t, len(padded), n)

		unpadded, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		assert.Len(t, unpadded, n)
	}
}

func TestPKCS7Invalid(t *testing.T) {
	bad := [][]byte{
		nil,
		make([]byte, 15),
		make([]byte, 16), // trailing zero
		append(make([]byte, 15), 17),
		append(make([]byte, 14), 3, 2),
		append(make([]byte, 13), 2, 3, 3), // mismatch at the first pad byte
		append(make([]byte, 16), append([]byte{15}, bytes.Repeat([]byte{16}, 15)...)...),
	}

	for _, b := range bad {
		_, err := pkcs7Unpad(b, 16)
		assert.ErrorIs(t, err, ErrInvalidPadding)
	}
}

func TestPKCS7FullBlock(t *testing.T) {
	b := append(make([]byte, 16), bytes.Repeat([]byte{16}, 16)...)

	unpadded, err := pkcs7Unpad(b, 16)
	require.NoError(t, err)
	assert.Len(t, unpadded, 16)
}
