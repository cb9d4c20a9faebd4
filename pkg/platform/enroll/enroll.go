// Package enroll opens the operating system screen where the user enrolls
// a biometric credential.
package enroll

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/cli/safeexec"

	"github.com/go-ctap/biogate/pkg/options"
)

var ErrUnsupported = errors.New("enroll: enrollment navigation not supported")

// DefaultCommand returns the settings command for goos, or "" when the
// platform has none.
func DefaultCommand(goos string) string {
	switch goos {
	case "linux":
		return "fprintd-enroll"
	case "windows":
		return "explorer.exe ms-settings:signinoptions"
	case "darwin":
		return "open x-apple.systempreferences:com.apple.preferences.password"
	default:
		return ""
	}
}

// Launcher starts an enrollment command without waiting for it.
type Launcher struct {
	argv   []string
	logger *slog.Logger
}

// NewLauncher returns a Launcher for command, a whitespace separated argv.
// An empty command selects DefaultCommand for the running platform.
func NewLauncher(command string, opts ...options.Option) *Launcher {
	oo := options.NewOptions(opts...)

	if command == "" {
		command = DefaultCommand(runtime.GOOS)
	}

	return &Launcher{
		argv:   strings.Fields(command),
		logger: oo.Logger,
	}
}

// NavigateToEnrollment starts the enrollment command. It returns
// ErrUnsupported when no command is configured or it is not on PATH.
func (l *Launcher) NavigateToEnrollment(ctx context.Context) error {
	if len(l.argv) == 0 {
		return ErrUnsupported
	}

	path, err := safeexec.LookPath(l.argv[0])
	if err != nil {
		l.logger.Debug("enrollment command not found", "command", l.argv[0], "err", err)
		return ErrUnsupported
	}

	// The settings UI outlives the request, so ctx only bounds the start.
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(path, l.argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	l.logger.Info("enrollment launched", "command", path, "pid", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("enrollment command exited", "command", path, "err", err)
		}
	}()

	return nil
}
