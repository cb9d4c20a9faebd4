// Package sugar wires the capability classifier, the lockout-gated
// authenticator and a cipher into a single unlock call, and offers
// helpers to discover FIDO devices.
package sugar

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coder/quartz"
	"github.com/samber/mo"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
)

//go:generate stringer -type=Operation -output=operation_string.go

// Operation is the secret operation performed after a successful prompt.
type Operation int

const (
	Encrypt Operation = iota
	Decrypt
)

// Cipher is the symmetric cipher collaborator, e.g. *keystore.Keystore.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Enroller hands the user over to biometric enrollment.
type Enroller interface {
	NavigateToEnrollment(ctx context.Context) error
}

// Platform is a biometric platform: probe, prompt and enrollment.
type Platform interface {
	capability.Prober
	authn.Prompter
	Enroller
}

// Result describes what Unlock did. Outcome is absent when the capability
// check stopped the flow before a prompt. Output is set only on Success.
type Result struct {
	Capability capability.Result
	Action     capability.Action
	Outcome    mo.Option[authn.Outcome]
	Output     []byte
}

// Err maps a result that did not produce Output to the error taxonomy.
func (r *Result) Err() error {
	if r.Capability != capability.Available {
		return &authn.ErrorWithMessage{Err: authn.ErrCapability, Message: r.Capability.Message()}
	}
	if out, ok := r.Outcome.Get(); ok {
		return out.Err()
	}
	return nil
}

// Message is the user-facing text for the result.
func (r *Result) Message() string {
	if out, ok := r.Outcome.Get(); ok {
		return out.UserMessage()
	}
	return r.Capability.Message()
}

type Gate struct {
	platform   Platform
	classifier *capability.Classifier
	auth       *authn.Authenticator
	cipher     Cipher
	clock      quartz.Clock
	logger     *slog.Logger
}

func NewGate(platform Platform, cipher Cipher, info authn.PromptInfo, opts ...options.Option) *Gate {
	oo := options.NewOptions(opts...)

	return &Gate{
		platform:   platform,
		classifier: capability.NewClassifier(opts...),
		auth:       authn.NewAuthenticator(platform, info, opts...),
		cipher:     cipher,
		clock:      oo.Clock,
		logger:     oo.Logger,
	}
}

// Authenticator exposes the lockout state owner, e.g. for an
// administrative Reset.
func (g *Gate) Authenticator() *authn.Authenticator {
	return g.auth
}

// offerEnrollment is best effort; platforms without an enrollment flow
// are skipped silently.
func (g *Gate) offerEnrollment(ctx context.Context) {
	if err := g.platform.NavigateToEnrollment(ctx); err != nil {
		if !errors.Is(err, enroll.ErrUnsupported) {
			g.logger.Warn("cannot open enrollment", "err", err)
		}
	}
}

// Unlock probes the platform, authenticates the user and, only on
// success, runs op on payload exactly once.
//
// A cipher failure is returned as error (a *keystore.CipherError for the
// keystore cipher) and does not count as an authentication failure. Every
// other outcome is reported through Result.
func (g *Gate) Unlock(ctx context.Context, op Operation, payload []byte) (*Result, error) {
	capResult := g.classifier.Check(ctx, g.platform)
	res := &Result{
		Capability: capResult,
		Action:     capability.NextActionFor(capResult),
	}

	switch res.Action {
	case capability.ActionProceed:
	case capability.ActionOfferEnrollment:
		g.offerEnrollment(ctx)
		return res, nil
	default:
		return res, nil
	}

	out := g.auth.Authenticate(ctx, g.clock.Now())
	res.Outcome = mo.Some(out)
	if out.Kind == authn.HardwareError && out.Cause == authn.EventNotEnrolled {
		// Enrollment vanished between the probe and the prompt.
		res.Action = capability.ActionOfferEnrollment
		g.offerEnrollment(ctx)
	}
	if out.Kind != authn.Success {
		return res, nil
	}

	var err error
	switch op {
	case Encrypt:
		res.Output, err = g.cipher.Encrypt(payload)
	case Decrypt:
		res.Output, err = g.cipher.Decrypt(payload)
	default:
		err = errors.New("sugar: unknown operation " + op.String())
	}
	if err != nil {
		g.logger.Warn("cipher operation failed", "op", op.String(), "err", err)
		return res, err
	}

	return res, nil
}
