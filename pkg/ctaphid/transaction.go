package ctaphid

import (
	"bytes"
	"crypto/subtle"
	"io"

	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

// KeepaliveFunc observes CTAPHID_KEEPALIVE packets while a request is
// pending, e.g. to tell the user the authenticator waits for a finger.
type KeepaliveFunc func(KeepaliveStatus)

// CBORResponse is a successful CTAPHID_CBOR response.
type CBORResponse struct {
	StatusCode StatusCode
	Data       []byte
}

// InitResponse is the CTAPHID_INIT response.
type InitResponse struct {
	Nonce                            []byte
	CID                              ChannelID
	CTAPHIDProtocolVersionIdentifier byte
	MajorDeviceVersion               byte
	MinorDeviceVersion               byte
	BuildDeviceVersion               byte
	CapabilityFlags                  CapabilityFlag
}

func (r *InitResponse) Implements(flag CapabilityFlag) bool {
	return r.CapabilityFlags&flag != 0
}

// transact writes a request and waits for the response to it, skipping
// keepalives and traffic for other channels.
func transact(dev io.ReadWriter, cid ChannelID, cmd Command, data []byte, onKeepalive KeepaliveFunc) (Message, error) {
	req, err := NewMessage(cid, cmd, data)
	if err != nil {
		return nil, err
	}

	if _, err := req.WriteTo(dev); err != nil {
		return nil, err
	}

	for {
		var resp Message
		if _, err := resp.ReadFrom(dev); err != nil {
			return nil, err
		}

		if resp.ChannelID() != cid {
			continue
		}

		switch resp.Command() {
		case cmd:
			return resp, nil
		case CTAPHID_KEEPALIVE:
			if payload := resp.Payload(); onKeepalive != nil && len(payload) > 0 {
				onKeepalive(KeepaliveStatus(payload[0]))
			}
		case CTAPHID_ERROR:
			payload := resp.Payload()
			if len(payload) == 0 {
				return nil, ErrInvalidResponseMessage
			}
			return nil, &HIDError{Code: Error(payload[0])}
		default:
			return nil, ErrUnexpectedCommand
		}
	}
}

// CBOR sends an authenticator API request; data starts with the
// authenticator command byte.
func CBOR(dev io.ReadWriter, cid ChannelID, data []byte) (*CBORResponse, error) {
	return CBORWithKeepalive(dev, cid, data, nil)
}

// CBORWithKeepalive is CBOR reporting keepalive statuses to onKeepalive.
func CBORWithKeepalive(dev io.ReadWriter, cid ChannelID, data []byte, onKeepalive KeepaliveFunc) (*CBORResponse, error) {
	if len(data) == 0 {
		return nil, ErrEmptyRequest
	}

	resp, err := transact(dev, cid, CTAPHID_CBOR, data, onKeepalive)
	if err != nil {
		return nil, err
	}

	payload := resp.Payload()
	if len(payload) == 0 {
		return nil, ErrInvalidResponseMessage
	}

	code := StatusCode(payload[0])
	if code != CTAP2_OK {
		return nil, newCTAPError(ctaptypes.Command(data[0]), code)
	}

	return &CBORResponse{
		StatusCode: code,
		Data:       payload[1:],
	}, nil
}

// Init allocates a channel. nonce must be 8 bytes and is echoed back.
func Init(dev io.ReadWriter, cid ChannelID, nonce []byte) (*InitResponse, error) {
	resp, err := transact(dev, cid, CTAPHID_INIT, nonce, nil)
	if err != nil {
		return nil, err
	}

	p := resp.Payload()
	if len(p) < 17 {
		return nil, ErrInvalidResponseMessage
	}
	if subtle.ConstantTimeCompare(p[:8], nonce) != 1 {
		return nil, ErrNonceMismatch
	}

	return &InitResponse{
		Nonce:                            p[:8],
		CID:                              ChannelID(p[8:12]),
		CTAPHIDProtocolVersionIdentifier: p[12],
		MajorDeviceVersion:               p[13],
		MinorDeviceVersion:               p[14],
		BuildDeviceVersion:               p[15],
		CapabilityFlags:                  CapabilityFlag(p[16]),
	}, nil
}

// Ping echoes data through the authenticator.
func Ping(dev io.ReadWriter, cid ChannelID, data []byte) ([]byte, error) {
	resp, err := transact(dev, cid, CTAPHID_PING, data, nil)
	if err != nil {
		return nil, err
	}

	pong := resp.Payload()
	if !bytes.Equal(pong, data) {
		return nil, ErrInvalidResponseMessage
	}
	return pong, nil
}

// Cancel aborts the pending request on cid. The authenticator answers
// the aborted request with CTAP2_ERR_KEEPALIVE_CANCEL, not the cancel.
func Cancel(dev io.Writer, cid ChannelID) error {
	msg, err := NewMessage(cid, CTAPHID_CANCEL, nil)
	if err != nil {
		return err
	}

	_, err = msg.WriteTo(dev)
	return err
}

// Wink asks the authenticator to show a visual identification.
func Wink(dev io.ReadWriter, cid ChannelID) error {
	_, err := transact(dev, cid, CTAPHID_WINK, nil, nil)
	return err
}
