// Package discord – interaction router
//
// Router receives every gateway interaction and dispatches it to exactly one
// handler based on (interaction kind, custom id). Before a handler runs it
// applies, in order: panic recovery, a correlation-scoped logger, staff
// authorization for restricted identifiers, per-user rate limiting for the
// user-facing actions, and interaction-id deduplication for the mutating
// ones. Outcomes are recorded as Prometheus metrics.
package discord

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/config"
	"github.com/thj-dnt/bankbot/internal/domain"
	"github.com/thj-dnt/bankbot/internal/ops"
	"github.com/thj-dnt/bankbot/internal/repo"
	"github.com/thj-dnt/bankbot/internal/services"
)

// Outcome labels recorded per interaction.
const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeDenied    = "denied"
	outcomeThrottled = "throttled"
	outcomeDuplicate = "duplicate"
	outcomePanic     = "panic"
	outcomeUnhandled = "unhandled"
)

// requestRepoShim adapts the repo package's free functions to the
// services.RequestRepo interface.
type requestRepoShim struct{}

func (requestRepoShim) CreateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	return repo.CreateRequest(ctx, db, req)
}

func (requestRepoShim) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ItemRequest, error) {
	return repo.GetRequest(ctx, db, id)
}

func (requestRepoShim) UpdateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	return repo.UpdateRequest(ctx, db, req)
}

func (requestRepoShim) SetButtonsMessage(ctx context.Context, db *gorm.DB, id, messageID string) error {
	return repo.SetButtonsMessage(ctx, db, id, messageID)
}

// claimRepoShim adapts the repo package's free functions to the
// services.ClaimRepo interface.
type claimRepoShim struct{}

func (claimRepoShim) GetClaim(ctx context.Context, db *gorm.DB, userID string) (*domain.StimulusClaim, error) {
	return repo.GetClaim(ctx, db, userID)
}

func (claimRepoShim) CreateClaim(ctx context.Context, db *gorm.DB, claim *domain.StimulusClaim) error {
	return repo.CreateClaim(ctx, db, claim)
}

func (claimRepoShim) MarkClaimPaid(ctx context.Context, db *gorm.DB, userID, staffID, staffUsername string, at time.Time) error {
	return repo.MarkClaimPaid(ctx, db, userID, staffID, staffUsername, at)
}

// Router dispatches gateway interactions to the application services.
type Router struct {
	cfg      config.Config
	db       *gorm.DB
	requests *services.RequestService
	stimulus *services.StimulusService
	limiter  *userLimiter
}

// NewRouter wires the services over the given database handle and session
// configuration. The notifier is constructed per session in Attach.
func NewRouter(cfg config.Config, db *gorm.DB, n *Notifier) *Router {
	return &Router{
		cfg:      cfg,
		db:       db,
		requests: services.NewRequestService(db, requestRepoShim{}, n),
		stimulus: services.NewStimulusService(db, claimRepoShim{}, n),
		limiter:  newUserLimiter(cfg.RateRPS, cfg.RateBurst),
	}
}

// HandleInteraction is the discordgo handler for InteractionCreate events.
func (r *Router) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	logger := log.With().
		Str("correlation_id", uuid.NewString()).
		Str("interaction_id", i.ID).
		Str("user_id", interactionUserID(i)).
		Logger()
	ctx := logger.WithContext(context.Background())

	kind, name := classifyInteraction(i)
	start := time.Now()
	outcome := outcomeOK

	defer func() {
		if rec := recover(); rec != nil {
			outcome = outcomePanic
			logger.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("custom_id", name).
				Msg("interaction handler panicked")
			r.replyEphemeral(s, i, "Something went wrong handling that action. Please try again.")
		}
		ops.ObserveInteraction(kind, name, outcome, time.Since(start))
	}()

	logger.Debug().Str("kind", kind).Str("custom_id", name).Msg("interaction received")
	outcome = r.dispatch(ctx, s, i, name, logger)
}

// dispatch runs the cross-cutting checks and the matched handler, returning
// the outcome label for metrics.
func (r *Router) dispatch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, name string, logger zerolog.Logger) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch name {
		case "bank":
			return r.outcomeOf(r.handleBank(ctx, s, i), logger, name)
		case "ping":
			return r.outcomeOf(r.handlePing(ctx, s, i), logger, name)
		}

	case discordgo.InteractionMessageComponent:
		cid := ParseCustomID(i.MessageComponentData().CustomID)
		if cid.StaffOnly() && !r.isStaff(i) {
			logger.Warn().Str("custom_id", cid.Name).Msg("unauthorized staff action attempt")
			r.replyEphemeral(s, i, "You do not have permission to use this action.")
			return outcomeDenied
		}
		if rateLimited(cid.Name) && !r.limiter.Allow(interactionUserID(i)) {
			logger.Warn().Str("custom_id", cid.Name).Msg("interaction rate limited")
			r.replyEphemeral(s, i, "You are doing that too fast. Please wait a moment and try again.")
			return outcomeThrottled
		}
		if mutating(cid.Name) && !r.firstDelivery(ctx, i, logger) {
			return outcomeDuplicate
		}

		switch cid.Name {
		case CIDMakeItemRequest:
			return r.outcomeOf(r.showItemRequestModal(s, i), logger, cid.Name)
		case CIDRequestStimulus:
			return r.outcomeOf(r.handleStimulusClaim(ctx, s, i), logger, cid.Name)
		case CIDRequestFulfilled:
			return r.outcomeOf(r.showFulfillModal(s, i), logger, cid.Name)
		case CIDRequestDeny:
			return r.outcomeOf(r.showDenyModal(s, i), logger, cid.Name)
		case CIDManageItems:
			return r.outcomeOf(r.handleManageItems(ctx, s, i), logger, cid.Name)
		case CIDManageItemsSelect:
			return r.outcomeOf(r.handleManageItemsSelect(ctx, s, i), logger, cid.Name)
		case CIDStimulusMarkPaid:
			return r.outcomeOf(r.handleStimulusMarkPaid(ctx, s, i, cid.Target), logger, cid.Name)
		}

	case discordgo.InteractionModalSubmit:
		if !r.firstDelivery(ctx, i, logger) {
			return outcomeDuplicate
		}
		switch name {
		case CIDItemRequestModal:
			return r.outcomeOf(r.handleItemRequestModal(ctx, s, i), logger, name)
		case CIDFulfillModal:
			return r.outcomeOf(r.handleFulfillModal(ctx, s, i), logger, name)
		case CIDDenyModal:
			return r.outcomeOf(r.handleDenyModal(ctx, s, i), logger, name)
		}
	}

	logger.Warn().Str("custom_id", name).Msg("unhandled interaction")
	return outcomeUnhandled
}

func (r *Router) outcomeOf(err error, logger zerolog.Logger, name string) string {
	if err != nil {
		logger.Error().Err(err).Str("custom_id", name).Msg("interaction handler failed")
		return outcomeError
	}
	return outcomeOK
}

// rateLimited reports whether the identifier is one of the user-facing
// actions subject to per-user rate limiting.
func rateLimited(name string) bool {
	return name == CIDMakeItemRequest || name == CIDRequestStimulus
}

// mutating reports whether a component identifier's handler changes
// persistent state and therefore needs gateway-redelivery deduplication.
// Modal submissions are always mutating.
func mutating(name string) bool {
	switch name {
	case CIDRequestStimulus, CIDManageItemsSelect, CIDStimulusMarkPaid:
		return true
	}
	return false
}

// firstDelivery records the interaction ID and reports whether this is the
// first time it has been seen. Redeliveries are logged and dropped without
// running a handler. Dedupe-store failures fail open: dropping a legitimate
// action is worse than double-handling one.
func (r *Router) firstDelivery(ctx context.Context, i *discordgo.InteractionCreate, logger zerolog.Logger) bool {
	err := repo.MarkInteractionProcessed(ctx, r.db, i.ID, r.cfg.DedupeTTL)
	if err == nil {
		return true
	}
	if errors.Is(err, repo.ErrDuplicate) {
		logger.Warn().Msg("duplicate interaction delivery ignored")
		return false
	}
	logger.Error().Err(err).Msg("interaction dedupe check failed")
	return true
}

// isStaff reports whether the interaction's member holds one of the
// configured staff roles. DM interactions carry no member and never pass.
func (r *Router) isStaff(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	held := make(map[string]bool, len(i.Member.Roles))
	for _, id := range i.Member.Roles {
		held[id] = true
	}
	for _, id := range r.cfg.AuthorizedStaffRoles {
		if held[id] {
			return true
		}
	}
	return false
}

// classifyInteraction extracts the (kind, name) metric labels.
func classifyInteraction(i *discordgo.InteractionCreate) (string, string) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return "command", i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return "component", ParseCustomID(i.MessageComponentData().CustomID).Name
	case discordgo.InteractionModalSubmit:
		return "modal", i.ModalSubmitData().CustomID
	default:
		return "other", i.Type.String()
	}
}

// interactionUserID resolves the acting user for both guild and DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// interactionUsername resolves the acting user's name the same way.
func interactionUsername(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}
