// Package ctaphidtest provides an in-memory CTAPHID peer for tests.
package ctaphidtest

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"slices"
	"sync"

	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

// CID is the channel the fake allocates on CTAPHID_INIT.
var CID = ctaphid.ChannelID{0xca, 0xfe, 0xba, 0xbe}

// CBORHandler answers one authenticator API request. ctx is canceled when
// the host sends CTAPHID_CANCEL. keepalive emits a CTAPHID_KEEPALIVE.
type CBORHandler func(
	ctx context.Context,
	cmd ctaptypes.Command,
	params []byte,
	keepalive func(ctaphid.KeepaliveStatus),
) (ctaphid.StatusCode, []byte)

// Device is an io.ReadWriteCloser speaking CTAPHID. Writes take one
// 65-byte output report (report ID first); reads yield one 64-byte input
// report.
type Device struct {
	handler CBORHandler

	mu       sync.Mutex
	pending  *request
	cancel   context.CancelFunc
	received []ctaphid.Command

	reports   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

type request struct {
	cid     ctaphid.ChannelID
	cmd     ctaphid.Command
	length  int
	payload []byte
}

func NewDevice(handler CBORHandler) *Device {
	return &Device{
		handler: handler,
		reports: make(chan []byte, 256),
		closed:  make(chan struct{}),
	}
}

// Received lists the commands the host has sent so far.
func (d *Device) Received() []ctaphid.Command {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.received)
}

func (d *Device) Write(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	report := p
	if len(report) == ctaphid.ReportSize+1 {
		report = report[1:]
	}
	if len(report) < 5 {
		return 0, io.ErrShortWrite
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cid := ctaphid.ChannelID(report[0:4])
	if report[4]&0x80 != 0 {
		length := int(binary.BigEndian.Uint16(report[5:7]))
		d.pending = &request{
			cid:     cid,
			cmd:     ctaphid.Command(report[4] &^ 0x80),
			length:  length,
			payload: slices.Clone(report[7 : 7+min(length, ctaphid.ReportSize-7)]),
		}
	} else if d.pending != nil && d.pending.cid == cid {
		n := min(d.pending.length-len(d.pending.payload), ctaphid.ReportSize-5)
		d.pending.payload = append(d.pending.payload, report[5:5+n]...)
	}

	if d.pending != nil && len(d.pending.payload) >= d.pending.length {
		req := d.pending
		d.pending = nil
		d.dispatch(req)
	}

	return len(p), nil
}

// dispatch runs with d.mu held.
func (d *Device) dispatch(req *request) {
	d.received = append(d.received, req.cmd)

	switch req.cmd {
	case ctaphid.CTAPHID_INIT:
		resp := slices.Concat(req.payload, CID[:], []byte{2, 1, 0, 0, byte(ctaphid.CAPABILITY_CBOR | ctaphid.CAPABILITY_WINK)})
		d.send(req.cid, ctaphid.CTAPHID_INIT, resp)
	case ctaphid.CTAPHID_PING:
		d.send(req.cid, ctaphid.CTAPHID_PING, req.payload)
	case ctaphid.CTAPHID_WINK:
		d.send(req.cid, ctaphid.CTAPHID_WINK, nil)
	case ctaphid.CTAPHID_CANCEL:
		if d.cancel != nil {
			d.cancel()
		}
	case ctaphid.CTAPHID_CBOR:
		if len(req.payload) == 0 || d.handler == nil {
			d.send(req.cid, ctaphid.CTAPHID_ERROR, []byte{byte(ctaphid.ERR_INVALID_LEN)})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel

		go func() {
			defer cancel()

			keepalive := func(s ctaphid.KeepaliveStatus) {
				d.send(req.cid, ctaphid.CTAPHID_KEEPALIVE, []byte{byte(s)})
			}
			code, data := d.handler(ctx, ctaptypes.Command(req.payload[0]), req.payload[1:], keepalive)
			d.send(req.cid, ctaphid.CTAPHID_CBOR, slices.Concat([]byte{byte(code)}, data))
		}()
	default:
		d.send(req.cid, ctaphid.CTAPHID_ERROR, []byte{byte(ctaphid.ERR_INVALID_CMD)})
	}
}

func (d *Device) send(cid ctaphid.ChannelID, cmd ctaphid.Command, payload []byte) {
	msg, err := ctaphid.NewMessage(cid, cmd, payload)
	if err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		panic(err)
	}

	for report := range slices.Chunk(buf.Bytes(), ctaphid.ReportSize+1) {
		select {
		case d.reports <- report[1:]:
		case <-d.closed:
			return
		}
	}
}

func (d *Device) Read(p []byte) (int, error) {
	select {
	case report := <-d.reports:
		return copy(p, report), nil
	case <-d.closed:
		return 0, io.EOF
	}
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		close(d.closed)

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.cancel != nil {
			d.cancel()
		}
	})
	return nil
}
