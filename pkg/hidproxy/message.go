// Package hidproxy is the wire format spoken with a HID proxy service
// that owns the FIDO devices, for hosts where an unprivileged process
// cannot open them directly (Windows requires administrator rights for
// raw FIDO HID access).
//
// A frame is a command byte, a big-endian uint16 length and a CBOR body.
// After CommandStart is acknowledged the connection carries raw HID
// reports in both directions.
package hidproxy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var encMode, _ = cbor.CTAP2EncOptions().EncMode()

const NamedPipePath = `\\.\pipe\ctaphid`

var (
	ErrUnexpectedCommand = errors.New("hidproxy: unexpected command")
	ErrFrameTooLarge     = errors.New("hidproxy: frame too large")
)

type Command byte

const (
	CommandEnumerate Command = iota + 1
	CommandStart
	CommandError
)

// DeviceInfo describes a HID device as reported by the proxy.
type DeviceInfo struct {
	Path       string `cbor:"1,keyasint"`
	VendorID   uint16 `cbor:"2,keyasint"`
	ProductID  uint16 `cbor:"3,keyasint"`
	MfrStr     string `cbor:"4,keyasint,omitempty"`
	ProductStr string `cbor:"5,keyasint,omitempty"`
	UsagePage  uint16 `cbor:"6,keyasint"`
	Usage      uint16 `cbor:"7,keyasint"`
}

type Message struct {
	Command Command
	Data    []byte
}

func NewMessage(cmd Command, body any) (*Message, error) {
	msg := &Message{Command: cmd}

	if body != nil {
		b, err := encMode.Marshal(body)
		if err != nil {
			return nil, err
		}
		if len(b) > 0xffff {
			return nil, ErrFrameTooLarge
		}
		msg.Data = b
	}

	return msg, nil
}

// ReadMessage reads one frame.
func ReadMessage(r io.Reader) (*Message, error) {
	hdr := make([]byte, 3)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	data := make([]byte, binary.BigEndian.Uint16(hdr[1:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return &Message{
		Command: Command(hdr[0]),
		Data:    data,
	}, nil
}

func (m *Message) WriteTo(w io.Writer) (int64, error) {
	if len(m.Data) > 0xffff {
		return 0, ErrFrameTooLarge
	}

	frame := make([]byte, 3, 3+len(m.Data))
	frame[0] = byte(m.Command)
	binary.BigEndian.PutUint16(frame[1:], uint16(len(m.Data)))
	frame = append(frame, m.Data...)

	n, err := w.Write(frame)
	return int64(n), err
}

// Decode unmarshals the CBOR body. A CommandError frame is turned into
// an error carrying the proxy's message.
func (m *Message) Decode(want Command, v any) error {
	if m.Command == CommandError {
		var msg string
		if err := cbor.Unmarshal(m.Data, &msg); err != nil {
			return fmt.Errorf("hidproxy: undecodable error frame: %w", err)
		}
		return errors.New("hidproxy: " + msg)
	}
	if m.Command != want {
		return ErrUnexpectedCommand
	}
	if v == nil || len(m.Data) == 0 {
		return nil
	}

	return cbor.Unmarshal(m.Data, v)
}

// Enumerate asks the proxy for its HID devices.
func Enumerate(conn io.ReadWriter) ([]DeviceInfo, error) {
	req, err := NewMessage(CommandEnumerate, nil)
	if err != nil {
		return nil, err
	}
	if _, err := req.WriteTo(conn); err != nil {
		return nil, err
	}

	resp, err := ReadMessage(conn)
	if err != nil {
		return nil, err
	}

	var infos []DeviceInfo
	if err := resp.Decode(CommandEnumerate, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Start asks the proxy to attach conn to the device at path. On success
// conn becomes a raw HID report stream.
func Start(conn io.ReadWriter, path string) error {
	req, err := NewMessage(CommandStart, path)
	if err != nil {
		return err
	}
	if _, err := req.WriteTo(conn); err != nil {
		return err
	}

	resp, err := ReadMessage(conn)
	if err != nil {
		return err
	}
	return resp.Decode(CommandStart, nil)
}
