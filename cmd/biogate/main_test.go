package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/config"
	"github.com/go-ctap/biogate/pkg/ctaphid"
	"github.com/go-ctap/biogate/pkg/ctaphid/ctaphidtest"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
	"github.com/go-ctap/biogate/pkg/sugar"
)

type stubPlatform struct {
	probe capability.Probe
	event authn.EventKind
}

func (p *stubPlatform) ProbeCapability(context.Context) (capability.Probe, error) {
	return p.probe, nil
}

func (p *stubPlatform) PresentPrompt(context.Context, authn.PromptInfo) (authn.PromptEvent, error) {
	return authn.PromptEvent{Kind: p.event}, nil
}

func (p *stubPlatform) NavigateToEnrollment(context.Context) error {
	return enroll.ErrUnsupported
}

func opener(p *stubPlatform) openPlatformFunc {
	return func(context.Context, *config.Config, []options.Option) (sugar.Platform, func() error, error) {
		return p, func() error { return nil }, nil
	}
}

func setup(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("BIOGATE_CONFIG_DIR", dir)
	t.Setenv("BIOGATE_KEYSTORE_PATH", filepath.Join(dir, "keystore.cbor"))
}

func runCLI(t *testing.T, p *stubPlatform, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, opener(p))
	return code, strings.TrimSpace(stdout.String()), stderr.String()
}

func TestEncryptDecrypt(t *testing.T) {
	setup(t)
	p := &stubPlatform{event: authn.EventSucceeded}

	code, ciphertext, _ := runCLI(t, p, "encrypt", "correct horse")
	require.Equal(t, exitOK, code)
	require.NotEmpty(t, ciphertext)

	code, plaintext, _ := runCLI(t, p, "decrypt", ciphertext)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "correct horse", plaintext)

	code, out, _ := runCLI(t, p, "delete-key")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "deleted")

	code, _, stderr := runCLI(t, p, "decrypt", ciphertext)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "key not found")
}

func TestEncryptRejected(t *testing.T) {
	setup(t)

	code, out, stderr := runCLI(t, &stubPlatform{event: authn.EventRejected}, "encrypt", "x")
	assert.Equal(t, exitDenied, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "not recognized")
}

func TestProbe(t *testing.T) {
	setup(t)

	code, out, _ := runCLI(t, &stubPlatform{probe: capability.ProbeSuccess}, "probe")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Available")

	code, out, _ = runCLI(t, &stubPlatform{probe: capability.ProbeNoneEnrolled}, "probe")
	assert.Equal(t, exitDenied, code)
	assert.Contains(t, out, "NotEnrolled")
}

func TestUsage(t *testing.T) {
	setup(t)
	p := &stubPlatform{}

	code, _, stderr := runCLI(t, p)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: biogate")

	code, _, _ = runCLI(t, p, "encrypt")
	assert.Equal(t, exitUsage, code)

	code, _, stderr = runCLI(t, p, "launch")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "launch"`)

	code, _, _ = runCLI(t, p, "--keystore", "floppy", "delete-key")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, p, "--help")
	assert.Equal(t, exitOK, code)
}

func TestDecryptNotBase64(t *testing.T) {
	setup(t)

	code, _, stderr := runCLI(t, &stubPlatform{}, "decrypt", "***")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "not base64")
}

type noWinkDevice struct{ closed bool }

func (d *noWinkDevice) Wink() error {
	return fmt.Errorf("wink: %w", device.ErrNotSupported)
}

func (d *noWinkDevice) Close() error {
	d.closed = true
	return nil
}

func TestDevicesWink(t *testing.T) {
	fake := ctaphidtest.NewDevice(ctaphidtest.NewFingerprintAuthenticator().Handle)
	dev, err := device.NewWithTransport("fake", fake)
	require.NoError(t, err)
	defer func() {
		_ = dev.Close()
	}()

	var stdout, stderr bytes.Buffer
	c := &cli{
		selectDevice: func(context.Context, ...options.Option) (winkDevice, error) {
			return dev, nil
		},
		stdout: &stdout,
		stderr: &stderr,
	}
	assert.Equal(t, exitOK, c.wink(context.Background()))
	assert.Contains(t, stdout.String(), "winked")
	assert.Contains(t, fake.Received(), ctaphid.CTAPHID_WINK)

	stdout.Reset()
	nw := &noWinkDevice{}
	c.selectDevice = func(context.Context, ...options.Option) (winkDevice, error) {
		return nw, nil
	}
	assert.Equal(t, exitDenied, c.wink(context.Background()))
	assert.Contains(t, stderr.String(), "cannot wink")
	assert.True(t, nw.closed)

	c.selectDevice = func(context.Context, ...options.Option) (winkDevice, error) {
		return nil, device.ErrNoDevices
	}
	assert.Equal(t, exitError, c.wink(context.Background()))
	assert.Contains(t, stderr.String(), "no FIDO devices")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	notifier(&buf)(authn.DefaultPromptInfo().Notice())

	assert.Equal(t, "Sample App Authentication\n"+
		"Please login to get access\n"+
		"Sample App is using biometric authentication\n"+
		"[Ctrl+C] Close\n", buf.String())
}
