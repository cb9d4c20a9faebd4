package authn

import "errors"

var (
	ErrCapability       = errors.New("authn: biometric capability unavailable")
	ErrAuthentication   = errors.New("authn: authentication not completed")
	ErrLockout          = errors.New("authn: temporarily locked out")
	ErrLockoutPermanent = errors.New("authn: permanently locked out")
	ErrHardware         = errors.New("authn: platform error")
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
