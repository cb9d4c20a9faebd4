package ctaphid

import (
	"errors"

	"github.com/go-ctap/biogate/pkg/ctaptypes"
)

var (
	ErrMessageTooLarge        = errors.New("ctaphid: message payload too large")
	ErrUnexpectedCommand      = errors.New("ctaphid: unexpected command")
	ErrInvalidResponseMessage = errors.New("ctaphid: invalid response message")
	ErrInvalidSequence        = errors.New("ctaphid: invalid packet sequence")
	ErrNonceMismatch          = errors.New("ctaphid: init nonce mismatch")
	ErrEmptyRequest           = errors.New("ctaphid: empty request")
)

// CTAPError is a non-zero status returned for a CTAPHID_CBOR request.
type CTAPError struct {
	Command    ctaptypes.Command
	StatusCode StatusCode
}

func newCTAPError(cmd ctaptypes.Command, code StatusCode) *CTAPError {
	return &CTAPError{
		Command:    cmd,
		StatusCode: code,
	}
}

func (e *CTAPError) Error() string {
	return e.Command.String() + " failed (" + e.StatusCode.String() + ")"
}

// HIDError is a CTAPHID_ERROR response from the transport layer.
type HIDError struct {
	Code Error
}

func (e *HIDError) Error() string {
	return "ctaphid: " + e.Code.String()
}

// StatusCodeOf extracts the CTAP status code from err, if any.
func StatusCodeOf(err error) (StatusCode, bool) {
	var ctapErr *CTAPError
	if errors.As(err, &ctapErr) {
		return ctapErr.StatusCode, true
	}
	return 0, false
}
