// Package services – StimulusService
//
// This file implements the StimulusService, which governs the one-time
// new-member stimulus claim. A claim document keyed by the claimant's user
// ID is created on first request and blocks every later attempt regardless
// of status; approval grants the configured role, marks the claim paid, and
// notifies the claimant. Approval is guarded by the pending→paid transition
// so a double-click cannot double-grant the role.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
	"github.com/thj-dnt/bankbot/internal/repo"
)

// ClaimRepo defines the repository contract required by StimulusService.
type ClaimRepo interface {
	// GetClaim fetches the claim for userID, or a not-found error.
	GetClaim(ctx context.Context, db *gorm.DB, userID string) (*domain.StimulusClaim, error)

	// CreateClaim inserts a pending claim; duplicate user IDs must fail.
	CreateClaim(ctx context.Context, db *gorm.DB, claim *domain.StimulusClaim) error

	// MarkClaimPaid transitions a pending claim to paid with audit fields,
	// failing when the claim is missing or no longer pending.
	MarkClaimPaid(ctx context.Context, db *gorm.DB, userID, staffID, staffUsername string, at time.Time) error
}

// StimulusService provides the stimulus claim operations.
type StimulusService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the claim repository used by this service.
	Repo ClaimRepo
	// Notify is the notification sink for prompts, role grants, and DMs.
	Notify StimulusNotifier
}

// NewStimulusService constructs a StimulusService.
func NewStimulusService(db *gorm.DB, r ClaimRepo, n StimulusNotifier) *StimulusService {
	return &StimulusService{DB: db, Repo: r, Notify: n}
}

// Claim creates the one-time stimulus claim for userID. Any existing claim
// document, pending or paid, rejects the attempt with ErrClaimExists and
// leaves state untouched. On success an approval prompt is posted to the
// review channel before the record is written, so a missing channel aborts
// with ErrChannelUnavailable and no record.
func (s *StimulusService) Claim(ctx context.Context, userID, username string) (*domain.StimulusClaim, error) {
	if _, err := s.Repo.GetClaim(ctx, s.DB, userID); err == nil {
		return nil, ErrClaimExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	channelID, messageID, err := s.Notify.PostClaimPrompt(ctx, userID, username)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("posting stimulus claim prompt failed")
		return nil, ErrChannelUnavailable
	}

	claim := &domain.StimulusClaim{
		ID:                userID,
		RequesterUsername: username,
		Status:            domain.ClaimPending,
		OfficerMessageID:  messageID,
		OfficerChannelID:  channelID,
	}
	if err := s.Repo.CreateClaim(ctx, s.DB, claim); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race with a concurrent claim after our existence check.
			return nil, ErrClaimExists
		}
		return nil, err
	}
	return claim, nil
}

// Approve marks the claim paid on behalf of staffID. Valid only while the
// claim is pending; a repeat approval returns ErrClaimAlreadyPaid. The role
// grant happens before the mutation: if the configured role cannot be
// assigned the approval aborts with ErrRoleUnavailable and the claim stays
// pending. Prompt-edit or DM failures after the mutation are logged and
// reported via ErrNotifyIncomplete.
func (s *StimulusService) Approve(ctx context.Context, userID, staffID, staffUsername string) (*domain.StimulusClaim, error) {
	claim, err := s.Repo.GetClaim(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	if claim.Status != domain.ClaimPending {
		return nil, ErrClaimAlreadyPaid
	}

	if err := s.Notify.GrantClaimedRole(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("granting claimed role failed")
		return nil, ErrRoleUnavailable
	}

	now := time.Now().UTC()
	if err := s.Repo.MarkClaimPaid(ctx, s.DB, userID, staffID, staffUsername, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with another approval after our pending check.
			return nil, ErrClaimAlreadyPaid
		}
		return nil, err
	}
	claim.Status = domain.ClaimPaid
	claim.PaidBy = staffID
	claim.PaidByUsername = staffUsername
	claim.PaidAt = &now

	ok := true
	if err := s.Notify.UpdateClaimPrompt(ctx, claim.OfficerChannelID, claim.OfficerMessageID, paidPromptContent(userID, staffID)); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("updating stimulus prompt failed")
		ok = false
	}
	if err := s.Notify.NotifyUser(ctx, userID, stimulusPaidDM(staffUsername)); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("notifying claimant failed")
		ok = false
	}
	if !ok {
		return claim, ErrNotifyIncomplete
	}
	return claim, nil
}

// ClaimPromptContent renders the officer approval prompt for a new claim.
func ClaimPromptContent(userID, username string) string {
	return "**New Member Stimulus Request!**\n" +
		fmt.Sprintf("**Requester:** <@%s> (%s)\n", userID, username) +
		"**Click 'Mark Paid' when plat has been delivered in-game.**"
}

func paidPromptContent(userID, staffID string) string {
	return "**New Member Stimulus Request!**\n" +
		fmt.Sprintf("**Requester:** <@%s> \n", userID) +
		fmt.Sprintf("**Status: __PAID__ by <@%s>!**", staffID)
}

func stimulusPaidDM(staffUsername string) string {
	return fmt.Sprintf("Your new member stimulus of 5000p has been processed by %s! Thank you for joining.", staffUsername)
}
