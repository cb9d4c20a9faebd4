package ctaphid

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

// A captured authenticatorGetInfo response spanning seven reports.
const getInfoResponseDump = "y2QaNpABawCyAYRmVTJGX1YyaEZJRE9fMl8waEZJRE9fMl8xbEZJRE9fMl8xX1BSRQKFaGNyZWRCbG9ia2NyZctkGjYAZFByb3RlY3RraG1hYy1zZWNyZXRsbGFyZ2VCbG9iS2V5bG1pblBpbkxlbmd0aANQ6rtGzOJBgL+unpbLZBo2AfptKXXPBKxicmv1YnVw9WRwbGF09GhhbHdheXNVdvRoY3JlZE1nbXT1aWF1dGhuckNmZ/VpY2xpZW50y2QaNgJQaW71amxhcmdlQmxvYnP1bnBpblV2QXV0aFRva2Vu9W9zZXRNaW5QSU5MZW5ndGj1cG1ha2VDcmVkVctkGjYDdk5vdFJxZPV1Y3JlZGVudGlhbE1nbXRQcmV2aWV39QUZCAAGggIBBwgIGGAJgmN1c2JjbmZjCoKiY2HLZBo2BGxnJmR0eXBlanB1YmxpYy1rZXmiY2FsZydkdHlwZWpwdWJsaWMta2V5CxkIAAz0DQYOGQEADxggEAYTy2QaNgWhZEZJRE8DFBkBFgAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=="

func TestMessage_ReadFromCapturedResponse(t *testing.T) {
	resp, err := base64.StdEncoding.DecodeString(getInfoResponseDump)
	require.NoError(t, err)

	var m Message
	n, err := m.ReadFrom(bytes.NewReader(resp))
	require.NoError(t, err)

	assert.Len(t, m, 7)
	assert.Equal(t, CTAPHID_CBOR, m.Command())
	assert.Equal(t, ChannelID{0xcb, 0x64, 0x1a, 0x36}, m.ChannelID())
	// Header bytes of all packets plus the 363 payload bytes.
	assert.Equal(t, int64(7+6*5+363), n)

	payload := m.Payload()
	require.Len(t, payload, 363)
	assert.Equal(t, byte(CTAP2_OK), payload[0])

	var info ctaptypes.AuthenticatorGetInfoResponse
	require.NoError(t, cbor.Unmarshal(payload[1:], &info))
	assert.True(t, info.Versions.Supports(ctaptypes.FIDO_2_1))
	assert.True(t, info.Versions.Supports(ctaptypes.U2F_V2))
	assert.Equal(t, ctaptypes.PinUvAuthProtocolTwo, info.PreferredPinUvAuthProtocol())
}

func TestNewMessage_RoundTrip(t *testing.T) {
	cid := ChannelID{1, 2, 3, 4}

	for _, size := range []int{0, 1, 57, 58, 57 + 59, 57 + 59 + 1, 1024} {
		data := lo.RepeatBy(size, func(i int) byte { return byte(i) })

		msg, err := NewMessage(cid, CTAPHID_PING, data)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = msg.WriteTo(&buf)
		require.NoError(t, err)
		require.Zero(t, buf.Len()%(ReportSize+1))

		// Strip report IDs, as the host side of a HID read never sees them.
		var reports bytes.Buffer
		for _, report := range lo.Chunk(buf.Bytes(), ReportSize+1) {
			assert.Equal(t, byte(0), report[0])
			reports.Write(report[1:])
		}

		var got Message
		_, err = got.ReadFrom(&reports)
		require.NoError(t, err)

		assert.Equal(t, CTAPHID_PING, got.Command())
		assert.Equal(t, cid, got.ChannelID())
		assert.Equal(t, data, got.Payload())
		assert.Len(t, got, len(msg))
	}
}

func TestNewMessage_TooLarge(t *testing.T) {
	_, err := NewMessage(BROADCAST_CID, CTAPHID_CBOR, make([]byte, MaxPayloadSize+1))
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	_, err = NewMessage(BROADCAST_CID, CTAPHID_CBOR, make([]byte, MaxPayloadSize))
	assert.NoError(t, err)
}

func TestMessage_ReadFromBadSequence(t *testing.T) {
	msg, err := NewMessage(BROADCAST_CID, CTAPHID_CBOR, make([]byte, 200))
	require.NoError(t, err)
	// Swap two continuation packets.
	msg[1], msg[2] = msg[2], msg[1]

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	var reports bytes.Buffer
	for _, report := range lo.Chunk(buf.Bytes(), ReportSize+1) {
		reports.Write(report[1:])
	}

	var got Message
	_, err = got.ReadFrom(&reports)
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestStatusCodeString(t *testing.T) {
	assert.Equal(t, "CTAP2_ERR_UV_INVALID", CTAP2_ERR_UV_INVALID.String())
	assert.Equal(t, "StatusCode(0xe5)", StatusCode(0xe5).String())
	assert.Equal(t, "CTAPHID_CBOR", CTAPHID_CBOR.String())
}
