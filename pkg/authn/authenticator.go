// Package authn sequences a biometric prompt, tracks consecutive failures
// and refuses attempts locally during a cooldown that follows a platform
// lockout.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-ctap/biogate/pkg/options"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Authenticator owns one LockoutState. Calls to Authenticate are
// serialized: at most one prompt is outstanding per instance.
type Authenticator struct {
	prompter Prompter
	info     PromptInfo
	cooldown time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	state LockoutState
}

func NewAuthenticator(prompter Prompter, info PromptInfo, opts ...options.Option) *Authenticator {
	oo := options.NewOptions(opts...)

	return &Authenticator{
		prompter: prompter,
		info:     info,
		cooldown: oo.Cooldown,
		logger:   oo.Logger,
	}
}

// State returns a copy of the current lockout state.
func (a *Authenticator) State() LockoutState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Reset clears the failure counter and any cooldown.
func (a *Authenticator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = LockoutState{}
}

// Cooldown returns the lockout window armed by a temporary platform lockout.
func (a *Authenticator) Cooldown() time.Duration {
	return a.cooldown
}

// Authenticate performs one attempt at time now. While now is before the
// recorded lockout expiry the prompter is not contacted and LockedOut is
// returned with the expiry.
func (a *Authenticator) Authenticate(ctx context.Context, now time.Time) Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Locked(now) {
		until := a.state.LockedUntil.MustGet()
		a.logger.Debug("attempt refused during cooldown", "lockedUntil", until, "now", now)
		return Outcome{Kind: LockedOut, Until: until}
	}
	if until, ok := a.state.LockedUntil.Get(); ok {
		a.logger.Debug("cooldown expired", "lockedUntil", until)
		a.state.LockedUntil = mo.None[time.Time]()
	}

	attempt := uuid.New()
	logger := a.logger.With("attempt", attempt.String())
	logger.Debug("presenting prompt", "title", a.info.Title)

	ev, err := a.prompter.PresentPrompt(ctx, a.info)
	if err != nil {
		ev = eventFromError(ctx, err)
	}

	out := a.apply(ev, now)
	logger.Info("attempt finished",
		"outcome", out.String(),
		"consecutiveFailures", a.state.ConsecutiveFailures,
	)

	return out
}

// apply folds a terminal prompt event into the lockout state. Callers hold mu.
func (a *Authenticator) apply(ev PromptEvent, now time.Time) Outcome {
	switch ev.Kind {
	case EventSucceeded:
		a.state = LockoutState{}
		return Outcome{Kind: Success}
	case EventRejected:
		a.state.ConsecutiveFailures++
		return Outcome{Kind: Rejected}
	case EventCanceled:
		return Outcome{Kind: Canceled}
	case EventLockout:
		until := now.Add(a.cooldown)
		a.state.LockedUntil = mo.Some(until)
		return Outcome{Kind: LockedOut, Until: until}
	default:
		return Outcome{
			Kind:    HardwareError,
			Code:    ev.Code,
			Message: ev.Message,
			Cause:   ev.Kind,
		}
	}
}

// eventFromError turns a prompter failure into a terminal event. A prompt
// abandoned because ctx ended counts as a cancellation.
func eventFromError(ctx context.Context, err error) PromptEvent {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return PromptEvent{Kind: EventCanceled, Message: err.Error()}
	}

	return PromptEvent{Kind: EventError, Message: err.Error()}
}
