// Command biogate encrypts and decrypts secrets after a biometric check.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/go-ctap/biogate/pkg/config"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/keystore"
	"github.com/go-ctap/biogate/pkg/logging"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/sugar"
)

const usage = `usage: biogate [flags] <command> [args]

commands:
  probe             report whether biometric authentication is available
  encrypt <text>    authenticate, then encrypt text and print base64
  decrypt <base64>  authenticate, then decrypt and print the text
  delete-key        delete the symmetric key
  devices [--wink]  list attached FIDO devices; --wink flashes the selected one

flags:
`

const (
	exitOK = iota
	exitError
	exitUsage
	exitDenied
)

// openPlatformFunc opens the configured biometric platform.
type openPlatformFunc func(ctx context.Context, cfg *config.Config, opts []options.Option) (sugar.Platform, func() error, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, openPlatform))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open openPlatformFunc) int {
	fs := pflag.NewFlagSet("biogate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var (
		configPath = fs.StringP("config", "c", "", "configuration file (default "+config.Path()+")")
		platform   = fs.StringP("platform", "p", "", "biometric platform: fido or fprintd")
		backend    = fs.String("keystore", "", "key storage: file, keyring or memory")
		alias      = fs.String("alias", "", "key alias")
		logLevel   = fs.String("log-level", "", "log level: debug, info, warn or error")
		namedPipe  = fs.Bool("named-pipe", false, "reach FIDO devices through the HID proxy (Windows)")
		wink       = fs.Bool("wink", false, "with devices: make the selected FIDO device blink")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitError
	}
	if *platform != "" {
		cfg.Platform.Backend = *platform
	}
	if *backend != "" {
		cfg.Keystore.Backend = *backend
	}
	if *alias != "" {
		cfg.Keystore.Alias = *alias
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *namedPipe {
		cfg.Platform.UseNamedPipe = true
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() {
		_ = closeLog()
	}()
	defer func() {
		_ = device.Exit()
	}()

	opts := append(cfg.Options(), options.WithLogger(logger), options.WithPromptNotifier(notifier(stderr)))

	c := &cli{
		cfg:  cfg,
		opts: opts,
		open: open,
		selectDevice: func(ctx context.Context, opts ...options.Option) (winkDevice, error) {
			return sugar.SelectDevice(ctx, opts...)
		},
		stdout: stdout,
		stderr: stderr,
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "probe":
		return c.probe(ctx)
	case "encrypt", "decrypt":
		if len(cmdArgs) != 1 {
			fs.Usage()
			return exitUsage
		}
		return c.unlock(ctx, cmd, cmdArgs[0])
	case "delete-key":
		return c.deleteKey()
	case "devices":
		if *wink {
			return c.wink(ctx)
		}
		return c.devices(ctx)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

// notifier prints the prompt for a terminal; interrupting is the only
// way to take the negative action.
func notifier(w io.Writer) func(options.PromptNotice) {
	return func(n options.PromptNotice) {
		_, _ = fmt.Fprintf(w, "%s\n%s\n%s\n", n.Title, n.Subtitle, n.Description)
		if n.NegativeButtonLabel != "" {
			_, _ = fmt.Fprintf(w, "[Ctrl+C] %s\n", n.NegativeButtonLabel)
		}
	}
}

// winkDevice is the part of *device.Device the devices command needs.
type winkDevice interface {
	Wink() error
	Close() error
}

type cli struct {
	cfg          *config.Config
	opts         []options.Option
	open         openPlatformFunc
	selectDevice func(ctx context.Context, opts ...options.Option) (winkDevice, error)
	stdout       io.Writer
	stderr       io.Writer
}

func (c *cli) keystore() (*keystore.Keystore, error) {
	storage, err := c.cfg.NewKeyStorage()
	if err != nil {
		return nil, err
	}
	return keystore.New(storage, c.cfg.Keystore.Alias, c.opts...), nil
}

func (c *cli) fail(err error) int {
	_, _ = fmt.Fprintln(c.stderr, err)
	return exitError
}
