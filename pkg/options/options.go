package options

import (
	"log/slog"
	"time"

	"github.com/coder/quartz"
	"github.com/fxamacker/cbor/v2"
)

// DefaultCooldown is how long local attempts are refused after the platform
// reports a temporary lockout.
const DefaultCooldown = 30 * time.Second

type Options struct {
	Logger       *slog.Logger
	EncMode      cbor.EncMode
	Clock        quartz.Clock
	Cooldown     time.Duration
	Paths        []string
	UseNamedPipe bool
	RPID         string
	OnPrompt     func(PromptNotice)
}

// PromptNotice is the prompt a platform is about to wait on.
type PromptNotice struct {
	Title               string
	Subtitle            string
	Description         string
	NegativeButtonLabel string
	RequireConfirmation bool
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithEncMode(encMode cbor.EncMode) Option {
	return func(opts *Options) {
		opts.EncMode = encMode
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock quartz.Clock) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// WithCooldown overrides DefaultCooldown. Non-positive values are ignored.
func WithCooldown(d time.Duration) Option {
	return func(opts *Options) {
		if d > 0 {
			opts.Cooldown = d
		}
	}
}

func WithPaths(paths ...string) Option {
	return func(opts *Options) {
		opts.Paths = paths
	}
}

func WithUseNamedPipes() Option {
	return func(opts *Options) {
		opts.UseNamedPipe = true
	}
}

// WithRPID sets the relying party ID used when requesting a UV token.
func WithRPID(rpID string) Option {
	return func(opts *Options) {
		opts.RPID = rpID
	}
}

// WithPromptNotifier registers a callback invoked right before a platform
// waits for the user, so a host without its own prompt UI can show the text
// and tell the user how to back out.
func WithPromptNotifier(fn func(PromptNotice)) Option {
	return func(opts *Options) {
		opts.OnPrompt = fn
	}
}

func NewOptions(opts ...Option) *Options {
	encMode, _ := cbor.CTAP2EncOptions().EncMode()
	oo := &Options{
		Logger:   slog.Default(),
		EncMode:  encMode,
		Clock:    quartz.NewReal(),
		Cooldown: DefaultCooldown,
		RPID:     "biogate.local",
		OnPrompt: func(PromptNotice) {},
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
