// Package device drives a single FIDO2 authenticator over CTAPHID for
// built-in user verification.
package device

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/go-ctap/biogate/pkg/ctap"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/options"
)

// Device represents an opened authenticator with an allocated channel.
type Device struct {
	Path string

	device     io.ReadWriteCloser
	cid        ctaphid.ChannelID
	init       *ctaphid.InitResponse
	info       *ctaptypes.AuthenticatorGetInfoResponse
	ctapClient *ctap.Client
	logger     *slog.Logger

	// mu serializes transactions on the channel.
	mu sync.Mutex
}

// New opens the HID device at path, allocates a channel and caches the
// authenticatorGetInfo response.
func New(ctx context.Context, path string, opts ...options.Option) (*Device, error) {
	oo := options.NewOptions(opts...)

	dev, err := OpenPath(ctx, path, oo.UseNamedPipe)
	if err != nil {
		return nil, err
	}

	d, err := NewWithTransport(path, dev, opts...)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	return d, nil
}

// NewWithTransport is like New but speaks CTAPHID over an already opened
// report stream. The Device takes ownership of dev.
func NewWithTransport(path string, dev io.ReadWriteCloser, opts ...options.Option) (*Device, error) {
	oo := options.NewOptions(opts...)

	d := &Device{
		Path:       path,
		device:     dev,
		ctapClient: ctap.NewClient(opts...),
		logger:     oo.Logger,
	}

	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	resp, err := ctaphid.Init(dev, ctaphid.BROADCAST_CID, nonce)
	if err != nil {
		return nil, err
	}
	d.cid = resp.CID
	d.init = resp

	if !resp.Implements(ctaphid.CAPABILITY_CBOR) {
		return nil, newErrorMessage(ErrNotSupported, "device doesn't speak CTAP2")
	}

	info, err := d.ctapClient.GetInfo(dev, d.cid)
	if err != nil {
		return nil, err
	}
	d.info = info

	d.logger.Debug(
		"device initialized",
		"path", path,
		"versions", info.Versions,
		"uvModality", info.UvModality,
	)

	return d, nil
}

// Close closes the underlying transport.
func (d *Device) Close() error {
	return d.device.Close()
}

// Info returns the cached authenticatorGetInfo response.
func (d *Device) Info() *ctaptypes.AuthenticatorGetInfoResponse {
	return d.info
}

// Wink asks the device to identify itself visually. Devices without the
// wink capability return ErrNotSupported.
func (d *Device) Wink() error {
	if !d.init.Implements(ctaphid.CAPABILITY_WINK) {
		return newErrorMessage(ErrNotSupported, "device doesn't support wink")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return ctaphid.Wink(d.device, d.cid)
}

// do runs fn on the channel and sends CTAPHID_CANCEL when ctx is done. The
// result of fn is always awaited, so the channel is idle on return.
func (d *Device) do(ctx context.Context, fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		errc <- fn()
	}()

	select {
	case <-ctx.Done():
		d.logger.Debug("canceling pending request", "path", d.Path)
		if err := ctaphid.Cancel(d.device, d.cid); err != nil {
			return errors.Join(err, <-errc)
		}
		return <-errc
	case err := <-errc:
		return err
	}
}

func (d *Device) checkUV() error {
	uv, ok := d.info.Option(ctaptypes.OptionUserVerification)
	if !ok {
		return newErrorMessage(ErrNotSupported, "device doesn't support user verification")
	}
	if !uv {
		return newErrorMessage(ErrUvNotConfigured, "please configure UV first (e.g. enroll biometry)")
	}
	return nil
}

// GetUVRetries retrieves the number of remaining built-in UV attempts.
func (d *Device) GetUVRetries(ctx context.Context) (uint, error) {
	if err := d.checkUV(); err != nil {
		return 0, err
	}

	var retries uint
	err := d.do(ctx, func() error {
		var err error
		retries, err = d.ctapClient.GetUVRetries(d.device, d.cid)
		return err
	})

	return retries, err
}

// GetPinUvAuthTokenUsingUV performs built-in user verification and returns
// the pinUvAuthToken. onKeepalive sees STATUS_UPNEEDED once the device waits
// for the user. Canceling ctx aborts the request; the returned error then
// carries CTAP2_ERR_KEEPALIVE_CANCEL.
func (d *Device) GetPinUvAuthTokenUsingUV(
	ctx context.Context,
	permission ctaptypes.Permission,
	rpID string,
	onKeepalive ctaphid.KeepaliveFunc,
) ([]byte, error) {
	token, ok := d.info.Option(ctaptypes.OptionPinUvAuthToken)
	if !ok || !token {
		return nil, newErrorMessage(ErrNotSupported, "device doesn't support pinUvAuthToken")
	}
	if err := d.checkUV(); err != nil {
		return nil, err
	}

	proto := d.info.PreferredPinUvAuthProtocol()

	var pinUvAuthToken []byte
	err := d.do(ctx, func() error {
		keyAgreement, err := d.ctapClient.GetKeyAgreement(d.device, d.cid, proto)
		if err != nil {
			return err
		}

		pinUvAuthToken, err = d.ctapClient.GetPinUvAuthTokenUsingUvWithPermissions(
			d.device,
			d.cid,
			proto,
			keyAgreement,
			permission,
			rpID,
			onKeepalive,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pinUvAuthToken, nil
}

// Selection blocks until the user touches the device or ctx is canceled.
// Cancellation is not an error.
func (d *Device) Selection(ctx context.Context) error {
	return d.do(ctx, func() error {
		return d.ctapClient.Selection(d.device, d.cid)
	})
}
