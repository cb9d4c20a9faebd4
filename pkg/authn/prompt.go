package authn

import (
	"context"

	"github.com/go-ctap/biogate/pkg/options"
)

// PromptInfo is the text and behaviour of a platform authentication prompt.
//
// The FIDO and fprintd backends have no UI of their own. They hand the
// whole PromptInfo to the prompt notifier, which shows the text and offers
// NegativeButtonLabel as the way to cancel. Both only verify on a
// deliberate touch or finger swipe, so they always behave as if
// RequireConfirmation were set.
type PromptInfo struct {
	Title               string
	Subtitle            string
	Description         string
	NegativeButtonLabel string
	RequireConfirmation bool
}

// DefaultPromptInfo mirrors the sample applications' prompt.
func DefaultPromptInfo() PromptInfo {
	return PromptInfo{
		Title:               "Sample App Authentication",
		Subtitle:            "Please login to get access",
		Description:         "Sample App is using biometric authentication",
		NegativeButtonLabel: "Close",
	}
}

// Notice converts the prompt for a notifier registered with
// options.WithPromptNotifier.
func (i PromptInfo) Notice() options.PromptNotice {
	return options.PromptNotice{
		Title:               i.Title,
		Subtitle:            i.Subtitle,
		Description:         i.Description,
		NegativeButtonLabel: i.NegativeButtonLabel,
		RequireConfirmation: i.RequireConfirmation,
	}
}

// EventKind is the terminal event a prompt collaborator delivers.
type EventKind int

const (
	EventSucceeded EventKind = iota
	// EventRejected is a biometric mismatch.
	EventRejected
	// EventCanceled covers user and system cancellation.
	EventCanceled
	// EventLockout is a temporary "too many attempts" lockout.
	EventLockout
	// EventLockoutPermanent requires a platform-level reset.
	EventLockoutPermanent
	EventNotEnrolled
	EventError
)

// PromptEvent is what a Prompter reports once the user has responded.
// Code and Message carry the platform's own error code and text, if any.
type PromptEvent struct {
	Kind    EventKind
	Code    int
	Message string
}

// Prompter presents the platform authentication UI and blocks until it
// reaches a terminal event or ctx is done.
type Prompter interface {
	PresentPrompt(ctx context.Context, info PromptInfo) (PromptEvent, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, info PromptInfo) (PromptEvent, error)

func (f PrompterFunc) PresentPrompt(ctx context.Context, info PromptInfo) (PromptEvent, error) {
	return f(ctx, info)
}
