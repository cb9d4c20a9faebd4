package device

import (
	"errors"
)

var (
	ErrNotSupported    = errors.New("device: not supported")
	ErrUvNotConfigured = errors.New("device: UV not configured")
	ErrNoDevices       = errors.New("device: no FIDO devices found")
)

type ErrorWithMessage struct {
	Message string
	Err     error
}

func newErrorMessage(err error, msg string) *ErrorWithMessage {
	return &ErrorWithMessage{
		Message: msg,
		Err:     err,
	}
}

func (m *ErrorWithMessage) Error() string {
	if m.Message != "" {
		return m.Err.Error() + " (" + m.Message + ")"
	}
	return m.Err.Error()
}

func (m *ErrorWithMessage) Unwrap() error {
	return m.Err
}
