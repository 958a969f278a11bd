// Package services – notification contracts
//
// The services own the request/claim state machines and their side effects,
// but never talk to Discord directly. Everything user-visible goes through
// the interfaces below, injected at startup, so the lifecycle logic is
// independently testable with fakes.
package services

import "context"

// ThreadPost describes a freshly created request thread.
type ThreadPost struct {
	// ThreadID is the new thread's ID and doubles as the request ID.
	ThreadID string
	// InitialMessageID is the thread's starter message, used for the
	// completion reaction. May be empty when the sink cannot report it.
	InitialMessageID string
	// URL is a deep link to the thread, included in requester DMs.
	URL string
}

// RequestNotifier is the notification sink for the request lifecycle.
// Implementations post to the configured request forum, edit the
// staff-actions surface in place, and deliver DMs.
type RequestNotifier interface {
	// CreateRequestThread opens a new thread on the request forum with the
	// given title and starter content.
	CreateRequestThread(ctx context.Context, title, content string) (*ThreadPost, error)

	// PostStaffActions posts the staff-actions surface (with action buttons)
	// to the thread and returns its message ID.
	PostStaffActions(ctx context.Context, threadID, content string) (string, error)

	// UpdateStaffActions edits the staff-actions surface in place.
	// withButtons controls whether the action buttons are re-displayed or
	// removed (terminal display).
	UpdateStaffActions(ctx context.Context, threadID, messageID, content string, withButtons bool) error

	// PostStatusUpdate posts a status-update message to the thread.
	PostStatusUpdate(ctx context.Context, threadID, content string) error

	// NotifyUser sends a direct message to the given user.
	NotifyUser(ctx context.Context, userID, content string) error

	// RenameThread renames the request thread.
	RenameThread(ctx context.Context, threadID, name string) error

	// ReactToMessage adds a reaction to a message in the thread.
	ReactToMessage(ctx context.Context, threadID, messageID, emoji string) error
}

// StimulusNotifier is the notification sink for stimulus claims.
type StimulusNotifier interface {
	// PostClaimPrompt posts the approval prompt to the review channel and
	// returns the channel and message IDs of the prompt.
	PostClaimPrompt(ctx context.Context, userID, username string) (channelID, messageID string, err error)

	// UpdateClaimPrompt edits the review prompt to its terminal display.
	UpdateClaimPrompt(ctx context.Context, channelID, messageID, content string) error

	// GrantClaimedRole assigns the configured claimed-role to the user.
	GrantClaimedRole(ctx context.Context, userID string) error

	// NotifyUser sends a direct message to the given user.
	NotifyUser(ctx context.Context, userID, content string) error
}
