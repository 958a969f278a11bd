// Package discord – notification sink
//
// Notifier implements services.RequestNotifier and services.StimulusNotifier
// over a discordgo session: forum threads, in-place message edits, DMs,
// thread renames, reactions, and role grants. It is the only place the
// services' side effects touch the Discord API.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/thj-dnt/bankbot/internal/config"
	"github.com/thj-dnt/bankbot/internal/services"
)

// Notifier posts to the configured channels on behalf of the services.
type Notifier struct {
	session *discordgo.Session
	cfg     config.Config
}

// NewNotifier constructs a Notifier bound to the session and configuration.
func NewNotifier(session *discordgo.Session, cfg config.Config) *Notifier {
	return &Notifier{session: session, cfg: cfg}
}

// staffActionButtons builds the Fulfill / Deny / Manage row shown on the
// staff-actions surface.
func staffActionButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CIDRequestFulfilled,
					Label:    "Mark Fulfilled",
					Style:    discordgo.SuccessButton,
				},
				discordgo.Button{
					CustomID: CIDRequestDeny,
					Label:    "Deny Request",
					Style:    discordgo.DangerButton,
				},
				discordgo.Button{
					CustomID: CIDManageItems,
					Label:    "Manage Items",
					Style:    discordgo.SecondaryButton,
				},
			},
		},
	}
}

// CreateRequestThread opens a new thread on the request forum. The starter
// message of a forum thread shares the thread's ID, which is what the
// completion reaction later targets.
func (n *Notifier) CreateRequestThread(ctx context.Context, title, content string) (*services.ThreadPost, error) {
	start := &discordgo.ThreadStart{Name: title}
	if n.cfg.GuildBankTagID != "" {
		start.AppliedTags = []string{n.cfg.GuildBankTagID}
	}
	th, err := n.session.ForumThreadStartComplex(
		n.cfg.BankRequestChannelID,
		start,
		&discordgo.MessageSend{Content: content},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("starting forum thread: %w", err)
	}
	return &services.ThreadPost{
		ThreadID:         th.ID,
		InitialMessageID: th.ID,
		URL:              fmt.Sprintf("https://discord.com/channels/%s/%s", n.cfg.GuildID, th.ID),
	}, nil
}

// PostStaffActions posts the staff-actions surface with its button row.
func (n *Notifier) PostStaffActions(ctx context.Context, threadID, content string) (string, error) {
	msg, err := n.session.ChannelMessageSendComplex(threadID, &discordgo.MessageSend{
		Content:    content,
		Components: staffActionButtons(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("posting staff actions: %w", err)
	}
	return msg.ID, nil
}

// UpdateStaffActions edits the staff-actions surface in place, restoring or
// removing the button row.
func (n *Notifier) UpdateStaffActions(ctx context.Context, threadID, messageID, content string, withButtons bool) error {
	edit := discordgo.NewMessageEdit(threadID, messageID).SetContent(content)
	components := []discordgo.MessageComponent{}
	if withButtons {
		components = staffActionButtons()
	}
	edit.Components = &components
	if _, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("editing staff actions: %w", err)
	}
	return nil
}

// PostStatusUpdate posts a status message to the request thread.
func (n *Notifier) PostStatusUpdate(ctx context.Context, threadID, content string) error {
	if _, err := n.session.ChannelMessageSend(threadID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("posting status update: %w", err)
	}
	return nil
}

// NotifyUser delivers a direct message. Users with DMs disabled surface as
// an error here and are handled as a partial notification failure upstream.
func (n *Notifier) NotifyUser(ctx context.Context, userID, content string) error {
	ch, err := n.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending DM: %w", err)
	}
	return nil
}

// RenameThread renames the request thread.
func (n *Notifier) RenameThread(ctx context.Context, threadID, name string) error {
	if _, err := n.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("renaming thread: %w", err)
	}
	return nil
}

// ReactToMessage adds a reaction to a message in the thread.
func (n *Notifier) ReactToMessage(ctx context.Context, threadID, messageID, emoji string) error {
	if err := n.session.MessageReactionAdd(threadID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("adding reaction: %w", err)
	}
	return nil
}

// PostClaimPrompt posts the stimulus approval prompt with its Mark Paid
// button to the review channel.
func (n *Notifier) PostClaimPrompt(ctx context.Context, userID, username string) (string, string, error) {
	msg, err := n.session.ChannelMessageSendComplex(n.cfg.StimulusChannelID, &discordgo.MessageSend{
		Content: services.ClaimPromptContent(userID, username),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: CustomID{Name: CIDStimulusMarkPaid, Target: userID}.Encode(),
						Label:    "Mark Paid",
						Style:    discordgo.SuccessButton,
					},
				},
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("posting claim prompt: %w", err)
	}
	return n.cfg.StimulusChannelID, msg.ID, nil
}

// UpdateClaimPrompt edits the review prompt to its terminal display,
// dropping the approval button.
func (n *Notifier) UpdateClaimPrompt(ctx context.Context, channelID, messageID, content string) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(content)
	components := []discordgo.MessageComponent{}
	edit.Components = &components
	if _, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("editing claim prompt: %w", err)
	}
	return nil
}

// GrantClaimedRole assigns the configured claimed-role to the user.
func (n *Notifier) GrantClaimedRole(ctx context.Context, userID string) error {
	if err := n.session.GuildMemberRoleAdd(n.cfg.GuildID, userID, n.cfg.StimulusClaimedRoleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("granting role: %w", err)
	}
	return nil
}

// Interface conformance.
var (
	_ services.RequestNotifier  = (*Notifier)(nil)
	_ services.StimulusNotifier = (*Notifier)(nil)
)
