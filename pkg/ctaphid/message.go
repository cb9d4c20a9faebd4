package ctaphid

import (
	"encoding/binary"
	"io"
	"slices"

	"github.com/samber/lo"
)

// ChannelID identifies a CTAPHID logical channel.
type ChannelID [4]byte

// BROADCAST_CID is used to allocate a channel with CTAPHID_INIT.
var BROADCAST_CID = ChannelID{0xff, 0xff, 0xff, 0xff}

// Message is a CTAPHID message split into one init packet and zero or
// more continuation packets.
type Message []*packet

type packet struct {
	cid          ChannelID
	command      Command
	sequence     byte
	length       uint16
	data         []byte
	continuation bool
}

// NewMessage splits data into packets addressed to cid.
func NewMessage(cid ChannelID, cmd Command, data []byte) (Message, error) {
	if len(data) > MaxPayloadSize {
		return nil, ErrMessageTooLarge
	}

	msg := Message{{
		cid:     cid,
		command: cmd,
		length:  uint16(len(data)),
		data:    lo.Slice(data, 0, ReportSize-initHeaderSize),
	}}

	if len(data) > ReportSize-initHeaderSize {
		for i, chunk := range lo.Chunk(data[ReportSize-initHeaderSize:], ReportSize-contHeaderSize) {
			msg = append(msg, &packet{
				cid:          cid,
				sequence:     byte(i),
				data:         chunk,
				continuation: true,
			})
		}
	}

	return msg, nil
}

// Command returns the command of the init packet.
func (m Message) Command() Command {
	if len(m) == 0 {
		return 0
	}
	return m[0].command
}

// ChannelID returns the channel the message is addressed to.
func (m Message) ChannelID() ChannelID {
	if len(m) == 0 {
		return ChannelID{}
	}
	return m[0].cid
}

// Payload reassembles the message data.
func (m Message) Payload() []byte {
	if len(m) == 0 {
		return nil
	}

	var b []byte
	for _, p := range m {
		b = slices.Concat(b, p.data)
	}
	return lo.Slice(b, 0, int(m[0].length))
}

// WriteTo writes every packet as its own HID output report, prefixed with
// report ID zero and padded to the full report size.
func (m Message) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, p := range m {
		report := make([]byte, 1+ReportSize)
		n := p.encode(report[1:])

		if _, err := w.Write(report); err != nil {
			return total, err
		}
		total += int64(n)
	}

	return total, nil
}

// encode writes the packet into b and returns the number of meaningful
// bytes; the rest of b stays zero.
func (p *packet) encode(b []byte) int {
	copy(b[0:4], p.cid[:])

	if p.continuation {
		b[4] = p.sequence
		return contHeaderSize + copy(b[contHeaderSize:], p.data)
	}

	b[4] = byte(p.command) | initPacketBit
	binary.BigEndian.PutUint16(b[5:7], p.length)
	return initHeaderSize + copy(b[initHeaderSize:], p.data)
}

// ReadFrom reads packets until the length announced by the init packet
// is satisfied. Every Read is expected to yield at most one report.
func (m *Message) ReadFrom(r io.Reader) (int64, error) {
	var (
		total     int64
		remaining = -1
		seq       = 0
		report    = make([]byte, ReportSize)
	)

	for remaining != 0 {
		var p packet

		hdr := contHeaderSize
		if remaining < 0 {
			hdr = initHeaderSize
		}

		n, err := io.ReadAtLeast(r, report, hdr)
		if err != nil {
			return total, err
		}

		p.cid = ChannelID(report[0:4])
		if report[4]&initPacketBit != 0 {
			if remaining >= 0 {
				return total, ErrInvalidSequence
			}
			p.command = Command(report[4] &^ initPacketBit)
			p.length = binary.BigEndian.Uint16(report[5:7])
			remaining = int(p.length)
		} else {
			if remaining < 0 || int(report[4]) != seq {
				return total, ErrInvalidSequence
			}
			p.sequence = report[4]
			p.continuation = true
			seq++
		}

		dataLen := min(remaining, ReportSize-hdr)
		if n < hdr+dataLen {
			if _, err := io.ReadFull(r, report[n:hdr+dataLen]); err != nil {
				return total, err
			}
		}

		p.data = slices.Clone(report[hdr : hdr+dataLen])
		remaining -= dataLen
		total += int64(hdr + dataLen)

		*m = append(*m, &p)
	}

	return total, nil
}
