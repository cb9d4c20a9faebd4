package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ValidationErrors collects every invalid field.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Prompt.Title == "" {
		errs = append(errs, &ValidationError{Field: "prompt.title", Message: "must not be empty"})
	}
	if c.Prompt.NegativeButtonLabel == "" {
		errs = append(errs, &ValidationError{Field: "prompt.negative_button_label", Message: "must not be empty"})
	}
	if c.Lockout.Cooldown.Duration <= 0 {
		errs = append(errs, &ValidationError{Field: "lockout.cooldown", Message: "must be positive"})
	}

	switch c.Keystore.Backend {
	case BackendMemory, BackendKeyring:
	case BackendFile:
		if c.Keystore.Path == "" {
			errs = append(errs, &ValidationError{Field: "keystore.path", Message: "required by the file backend"})
		}
	default:
		errs = append(errs, &ValidationError{Field: "keystore.backend", Message: fmt.Sprintf("unknown backend %q", c.Keystore.Backend)})
	}
	if c.Keystore.Backend == BackendKeyring && c.Keystore.Service == "" {
		errs = append(errs, &ValidationError{Field: "keystore.service", Message: "required by the keyring backend"})
	}

	switch c.Platform.Backend {
	case PlatformFIDO:
		if c.Platform.RPID == "" {
			errs = append(errs, &ValidationError{Field: "platform.rp_id", Message: "must not be empty"})
		}
	case PlatformFprintd:
	default:
		errs = append(errs, &ValidationError{Field: "platform.backend", Message: fmt.Sprintf("unknown backend %q", c.Platform.Backend)})
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		errs = append(errs, &ValidationError{Field: "logging.level", Message: fmt.Sprintf("must be one of %v", logLevels)})
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		errs = append(errs, &ValidationError{Field: "logging.format", Message: fmt.Sprintf("must be one of %v", logFormats)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
