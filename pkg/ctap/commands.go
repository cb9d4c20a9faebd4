// Package ctap issues the authenticator API commands used for built-in
// user verification over a CTAPHID channel.
package ctap

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/ldclabs/cose/key"

	"github.com/go-ctap/biogate/pkg/crypto"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/options"
)

type Client struct {
	logger  *slog.Logger
	encMode cbor.EncMode
}

func NewClient(opts ...options.Option) *Client {
	oo := options.NewOptions(opts...)

	return &Client{
		logger:  oo.Logger,
		encMode: oo.EncMode,
	}
}

// call marshals req (if any), sends it as command cmd and unmarshals the
// response into resp (if any). Frames are dumped at debug level.
func (cl *Client) call(
	device io.ReadWriter,
	cid ctaphid.ChannelID,
	cmd ctaptypes.Command,
	name string,
	req any,
	resp any,
	onKeepalive ctaphid.KeepaliveFunc,
) error {
	var b []byte
	if req != nil {
		var err error
		b, err = cl.encMode.Marshal(req)
		if err != nil {
			return fmt.Errorf("cannot marshal %s CBOR request: %w", name, err)
		}
		cl.logger.Debug(name+" CBOR request", "hex", hex.EncodeToString(b))
	}

	respRaw, err := ctaphid.CBORWithKeepalive(device, cid, slices.Concat([]byte{byte(cmd)}, b), onKeepalive)
	if err != nil {
		return err
	}
	cl.logger.Debug(name+" CBOR response", "hex", hex.EncodeToString(respRaw.Data))

	if resp == nil || len(respRaw.Data) == 0 {
		return nil
	}
	if err := cbor.Unmarshal(respRaw.Data, resp); err != nil {
		return fmt.Errorf("cannot unmarshal %s CBOR response: %w", name, err)
	}

	return nil
}

func (cl *Client) GetInfo(device io.ReadWriter, cid ctaphid.ChannelID) (*ctaptypes.AuthenticatorGetInfoResponse, error) {
	var resp ctaptypes.AuthenticatorGetInfoResponse
	if err := cl.call(device, cid, ctaptypes.AuthenticatorGetInfo, "getInfo", nil, &resp, nil); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (cl *Client) GetKeyAgreement(
	device io.ReadWriter,
	cid ctaphid.ChannelID,
	pinUvAuthProtocol ctaptypes.PinUvAuthProtocol,
) (key.Key, error) {
	req := &ctaptypes.AuthenticatorClientPINRequest{
		PinUvAuthProtocol: pinUvAuthProtocol,
		SubCommand:        ctaptypes.ClientPINSubCommandGetKeyAgreement,
	}

	var resp ctaptypes.AuthenticatorClientPINResponse
	if err := cl.call(device, cid, ctaptypes.AuthenticatorClientPIN, "getKeyAgreement", req, &resp, nil); err != nil {
		return nil, err
	}
	if resp.KeyAgreement == nil {
		return nil, errors.New("ctap: keyAgreement missing in response")
	}

	return resp.KeyAgreement, nil
}

// GetUVRetries returns how many built-in UV attempts remain before UV is
// blocked.
func (cl *Client) GetUVRetries(device io.ReadWriter, cid ctaphid.ChannelID) (uint, error) {
	req := &ctaptypes.AuthenticatorClientPINRequest{
		SubCommand: ctaptypes.ClientPINSubCommandGetUVRetries,
	}

	var resp ctaptypes.AuthenticatorClientPINResponse
	if err := cl.call(device, cid, ctaptypes.AuthenticatorClientPIN, "getUVRetries", req, &resp, nil); err != nil {
		return 0, err
	}

	return resp.UvRetries, nil
}

// GetPinUvAuthTokenUsingUvWithPermissions runs built-in user verification
// (e.g. a fingerprint match) and returns the decrypted pinUvAuthToken. It
// blocks until the user acts, the authenticator times out, or the request
// is canceled with CTAPHID_CANCEL.
func (cl *Client) GetPinUvAuthTokenUsingUvWithPermissions(
	device io.ReadWriter,
	cid ctaphid.ChannelID,
	pinUvAuthProtocol ctaptypes.PinUvAuthProtocol,
	keyAgreement key.Key,
	permissions ctaptypes.Permission,
	rpID string,
	onKeepalive ctaphid.KeepaliveFunc,
) ([]byte, error) {
	protocol, err := crypto.NewPinUvAuthProtocol(pinUvAuthProtocol)
	if err != nil {
		return nil, err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return nil, err
	}

	req := &ctaptypes.AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Number,
		SubCommand:        ctaptypes.ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions,
		KeyAgreement:      platformCoseKey,
		Permissions:       permissions,
		RPID:              rpID,
	}

	var resp ctaptypes.AuthenticatorClientPINResponse
	if err := cl.call(
		device,
		cid,
		ctaptypes.AuthenticatorClientPIN,
		"getPinUvAuthTokenUsingUvWithPermissions",
		req,
		&resp,
		onKeepalive,
	); err != nil {
		return nil, err
	}

	return protocol.Decrypt(sharedSecret, resp.PinUvAuthToken)
}

// Selection blocks until the user touches the authenticator or the request
// is canceled; a cancel is not an error.
func (cl *Client) Selection(device io.ReadWriter, cid ctaphid.ChannelID) error {
	err := cl.call(device, cid, ctaptypes.AuthenticatorSelection, "selection", nil, nil, nil)
	if code, ok := ctaphid.StatusCodeOf(err); ok && code == ctaphid.CTAP2_ERR_KEEPALIVE_CANCEL {
		return nil
	}

	return err
}
