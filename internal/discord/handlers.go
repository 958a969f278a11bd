// Package discord – interaction handlers
//
// One handler per command, button, select, and modal. Handlers translate
// interaction payloads into service calls and map the services' sentinel
// errors back to ephemeral notices. All texts shown to members live either
// here (transport-level notices) or in the services package (lifecycle
// messages).
package discord

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/thj-dnt/bankbot/internal/domain"
	"github.com/thj-dnt/bankbot/internal/services"
)

// Modal input identifiers. Wire-stable, same as the component IDs.
const (
	inputItems          = "itemsInput"
	inputCharacterName  = "characterNameInput"
	inputAdditionalNote = "additionalNotesInput"
	inputFulfillMessage = "fulfillMessageInput"
	inputDenyMessage    = "denyMessageInput"
)

const bankPanelContent = "**__Guild Bank Information & Actions__**\n\n" +
	"Welcome! To access the Guild Bank, please:\n\n" +
	"• **View Guild Bank Website** first to see available items.\n" +
	"• Then, use **Make an Item Request** below to submit your personalized request.\n" +
	"• New members can also claim **New Member Stimulus**."

// handleBank posts the public information panel with its three actions.
func (r *Router) handleBank(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: bankPanelContent,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label: "View Guild Bank Website",
							Style: discordgo.LinkButton,
							URL:   r.cfg.WebsiteURL,
						},
						discordgo.Button{
							CustomID: CIDMakeItemRequest,
							Label:    "Make an Item Request",
							Style:    discordgo.PrimaryButton,
						},
						discordgo.Button{
							CustomID: CIDRequestStimulus,
							Label:    "Request New Member Stimulus",
							Style:    discordgo.SuccessButton,
						},
					},
				},
			},
		},
	}, discordgo.WithContext(ctx))
}

func (r *Router) handlePing(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: "Pong!"},
	}, discordgo.WithContext(ctx))
}

// showItemRequestModal opens the request form.
func (r *Router) showItemRequestModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CIDItemRequestModal,
			Title:    "Guild Bank Item Request",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputItems,
						Label:       "Items To Request (One Per Line)",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "e.g.,\n1x Flowing Black Silk Sash\n2x Orb of the Infinite Void\n1x Shield of the Immaculate",
						Required:    true,
						MinLength:   1,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputCharacterName,
						Label:       "Character Name (Where To Send Items)",
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g., Grumpytoon",
						Required:    true,
						MinLength:   1,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputAdditionalNote,
						Label:       "Additional Notes (Optional)",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "e.g., Available after 5pm EST, please parcel",
						Required:    false,
					},
				}},
			},
		},
	})
}

// showFulfillModal opens the optional-message form for full fulfillment.
func (r *Router) showFulfillModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CIDFulfillModal,
			Title:    "Mark Request Fulfilled",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputFulfillMessage,
						Label:       "Message to Requester (Optional)",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "e.g., Your items have been delivered! Enjoy!",
						Required:    false,
					},
				}},
			},
		},
	})
}

// showDenyModal opens the mandatory-reason form for denial. The minimum
// length here matches the service-side check.
func (r *Router) showDenyModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CIDDenyModal,
			Title:    "Deny Request",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputDenyMessage,
						Label:       "Reason for Denial (Required)",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "e.g., Items out of stock, character not valid, etc.",
						Required:    true,
						MinLength:   services.MinDenyReasonLen,
					},
				}},
			},
		},
	})
}

// handleStimulusClaim processes the one-time stimulus claim button.
func (r *Router) handleStimulusClaim(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferEphemeral(ctx, s, i); err != nil {
		return err
	}

	_, err := r.stimulus.Claim(ctx, interactionUserID(i), interactionUsername(i))
	switch {
	case err == nil:
		return followupEphemeral(ctx, s, i, "Your new member stimulus request has been sent to an officer. Please wait for them to process it in-game.")
	case errors.Is(err, services.ErrClaimExists):
		return followupEphemeral(ctx, s, i, "You have already received your new member stimulus. This is a one-time claim per account.")
	case errors.Is(err, services.ErrChannelUnavailable):
		_ = followupEphemeral(ctx, s, i, "There was an error finding the officer channel for stimulus. Please contact a bot administrator.")
		return err
	default:
		_ = followupEphemeral(ctx, s, i, "There was an error processing your stimulus request. Please try again later or contact a bot administrator.")
		return err
	}
}

// handleItemRequestModal processes the submitted request form. The form is
// acknowledged immediately; failures after that arrive as followups.
func (r *Router) handleItemRequestModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	items := modalValue(data, inputItems)
	characterName := modalValue(data, inputCharacterName)
	notes := modalValue(data, inputAdditionalNote)

	if err := replyEphemeralErr(ctx, s, i, "Your item request has been submitted!"); err != nil {
		return err
	}

	_, err := r.requests.Create(ctx, interactionUserID(i), interactionUsername(i), characterName, items, notes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrChannelUnavailable):
		_ = followupEphemeral(ctx, s, i, "There was an error finding the request forum channel. Please contact a bot administrator.")
		return err
	case errors.Is(err, services.ErrNotifyIncomplete):
		_ = followupEphemeral(ctx, s, i, "Your request was posted, but some follow-up messages could not be delivered. A banker will still see it.")
		return err
	default:
		_ = followupEphemeral(ctx, s, i, "There was an error processing your request. Please try again later or contact a bot administrator.")
		return err
	}
}

// handleFulfillModal marks the whole request fulfilled from the thread the
// modal was submitted in.
func (r *Router) handleFulfillModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	message := modalValue(i.ModalSubmitData(), inputFulfillMessage)
	if err := deferUpdate(ctx, s, i); err != nil {
		return err
	}

	_, err := r.requests.MarkFulfilled(ctx, i.ChannelID, interactionUserID(i), interactionUsername(i), message)
	return r.reportLifecycleResult(ctx, s, i, err, "Fulfillment aborted.")
}

// handleDenyModal denies the request from the thread the modal was
// submitted in.
func (r *Router) handleDenyModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	reason := modalValue(i.ModalSubmitData(), inputDenyMessage)
	if err := deferUpdate(ctx, s, i); err != nil {
		return err
	}

	_, err := r.requests.MarkDenied(ctx, i.ChannelID, interactionUserID(i), interactionUsername(i), reason)
	if errors.Is(err, services.ErrReasonTooShort) {
		_ = followupEphemeral(ctx, s, i, "The denial reason must be at least 10 characters. Request unchanged.")
		return err
	}
	return r.reportLifecycleResult(ctx, s, i, err, "Denial aborted.")
}

// handleManageItems shows the ephemeral select menu of still-pending items.
func (r *Router) handleManageItems(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferUpdate(ctx, s, i); err != nil {
		return err
	}

	threadID := i.ChannelID
	req, err := r.requests.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			return followupEphemeral(ctx, s, i, "Could not find this request in the database. It might have been fulfilled or denied already.")
		}
		_ = followupEphemeral(ctx, s, i, "There was an error preparing the item management menu. Please check logs.")
		return err
	}
	pending, err := r.requests.ListPending(ctx, threadID)
	if err != nil {
		_ = followupEphemeral(ctx, s, i, "There was an error preparing the item management menu. Please check logs.")
		return err
	}
	if len(pending) == 0 {
		return followupEphemeral(ctx, s, i, "All items in this request are already marked as fulfilled!")
	}

	options := make([]discordgo.SelectMenuOption, 0, len(pending))
	for _, it := range pending {
		options = append(options, discordgo.SelectMenuOption{
			Label:       it.Name,
			Value:       strconv.Itoa(it.OriginalIndex),
			Description: "Current Status: Pending",
		})
	}
	minValues := 1
	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: "**Select Items to Mark as Fulfilled for " + req.CharacterName + ":**",
		Flags:   discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    CIDManageItemsSelect,
					Placeholder: "Select items to mark as fulfilled...",
					MinValues:   &minValues,
					MaxValues:   len(options),
					Options:     options,
				},
			}},
		},
	}, discordgo.WithContext(ctx))
	return err
}

// handleManageItemsSelect applies the selected items as delivered.
func (r *Router) handleManageItemsSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	values := i.MessageComponentData().Values
	if err := deferUpdate(ctx, s, i); err != nil {
		return err
	}

	selected := make([]int, 0, len(values))
	for _, v := range values {
		idx, err := strconv.Atoi(v)
		if err != nil {
			log.Ctx(ctx).Warn().Str("value", v).Msg("ignoring malformed item selection value")
			continue
		}
		selected = append(selected, idx)
	}

	upd, err := r.requests.MarkItemsFulfilled(ctx, i.ChannelID, interactionUserID(i), interactionUsername(i), selected)
	switch {
	case err == nil:
		return followupEphemeral(ctx, s, i, selectionAppliedNotice(upd.Request.Status))
	case errors.Is(err, services.ErrRequestNotFound):
		return followupEphemeral(ctx, s, i, "Could not find this request in the database. It might have been fulfilled or denied already.")
	case errors.Is(err, services.ErrNoItemsSelected):
		return followupEphemeral(ctx, s, i, "No valid items were selected.")
	case errors.Is(err, services.ErrInvalidTransition):
		return followupEphemeral(ctx, s, i, "This request has already been closed and can no longer be updated.")
	case errors.Is(err, services.ErrNotifyIncomplete):
		_ = followupEphemeral(ctx, s, i, selectionAppliedNotice(upd.Request.Status)+" Some notifications could not be delivered.")
		return err
	default:
		_ = followupEphemeral(ctx, s, i, "There was an error processing your item selection. Please check logs.")
		return err
	}
}

func selectionAppliedNotice(status domain.Status) string {
	label := "PARTIALLY FULFILLED"
	if status == domain.StatusFulfilled {
		label = "FULFILLED"
	}
	return "Items marked as fulfilled. Status updated to **" + label + "**. Requester notified."
}

// handleStimulusMarkPaid approves the claim embedded in the button's target.
func (r *Router) handleStimulusMarkPaid(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, claimantID string) error {
	if err := deferUpdate(ctx, s, i); err != nil {
		return err
	}

	_, err := r.stimulus.Approve(ctx, claimantID, interactionUserID(i), interactionUsername(i))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrClaimNotFound):
		return followupEphemeral(ctx, s, i, "Could not find this stimulus claim in the database.")
	case errors.Is(err, services.ErrClaimAlreadyPaid):
		return followupEphemeral(ctx, s, i, "This stimulus claim has already been marked as paid.")
	case errors.Is(err, services.ErrRoleUnavailable):
		_ = followupEphemeral(ctx, s, i, "Could not assign the claimed role. The claim is still pending; please check the role configuration.")
		return err
	case errors.Is(err, services.ErrNotifyIncomplete):
		_ = followupEphemeral(ctx, s, i, "Claim marked as paid, but some notifications could not be delivered.")
		return err
	default:
		_ = followupEphemeral(ctx, s, i, "There was an error marking stimulus as paid. Please check logs.")
		return err
	}
}

// reportLifecycleResult maps the shared fulfill/deny error cases to staff
// notices. Success needs no followup, the thread itself shows the outcome.
func (r *Router) reportLifecycleResult(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, err error, abortNote string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrRequestNotFound):
		return followupEphemeral(ctx, s, i, "Could not find request data for this thread. "+abortNote)
	case errors.Is(err, services.ErrInvalidTransition):
		return followupEphemeral(ctx, s, i, "This request has already been closed and can no longer be updated.")
	case errors.Is(err, services.ErrNotifyIncomplete):
		_ = followupEphemeral(ctx, s, i, "Request updated, but some notifications could not be delivered.")
		return err
	default:
		_ = followupEphemeral(ctx, s, i, "There was an error processing this action. Please check logs.")
		return err
	}
}

// ---- response helpers ----

// replyEphemeral acknowledges with an ephemeral notice, falling back to a
// followup when the interaction was already acknowledged. Used from the
// router's guard paths where there is no error to propagate.
func (r *Router) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		return
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		log.Error().Err(err).Str("interaction_id", i.ID).Msg("sending ephemeral notice failed")
	}
}

func replyEphemeralErr(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func deferEphemeral(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
}

func deferUpdate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
}

func followupEphemeral(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	return err
}

// modalValue extracts a text input's value from a modal submission.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if in, ok := c.(*discordgo.TextInput); ok && in.CustomID == customID {
				return in.Value
			}
		}
	}
	return ""
}
