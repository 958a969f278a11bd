// Package services – RequestService
//
// This file implements the RequestService, which owns the item-request
// lifecycle: pending → partially_fulfilled → fulfilled, or pending → denied.
// Every mutating operation validates the transition against the explicit
// table in the domain package before touching the record, then applies the
// mutation, then fires the dependent notifications. Side effects that fail
// after the mutation are logged and reported via ErrNotifyIncomplete but
// never rolled back or retried.
//
// Service-level errors (e.g. ErrRequestNotFound, ErrInvalidTransition) are
// returned for predictable cases so interaction handlers can map them to
// ephemeral replies consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// MinDenyReasonLen is the minimum length of a denial reason, enforced both
// by the deny modal and again here before any state mutation.
const MinDenyReasonLen = 10

// RequestRepo defines the repository contract required by RequestService.
// Implementations are responsible for persistence of request aggregates.
type RequestRepo interface {
	// CreateRequest inserts a new request with its item rows.
	CreateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error

	// GetRequest fetches a request with items in original-index order.
	GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ItemRequest, error)

	// UpdateRequest persists status, audit fields, and item fulfilled flags.
	UpdateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error

	// SetButtonsMessage records the staff-actions message ID.
	SetButtonsMessage(ctx context.Context, db *gorm.DB, id, messageID string) error
}

// ItemsUpdate is the result of a partial-fulfillment update. FulfilledNow
// lists only items flipped in this call (already-fulfilled selections are
// idempotent and excluded); StillPending lists items remaining unfulfilled
// after the update.
type ItemsUpdate struct {
	Request      *domain.ItemRequest
	FulfilledNow []string
	StillPending []string
}

// RequestService provides the item-request lifecycle operations. All
// dependencies are injected; the service holds no ambient state.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the request repository used by this service.
	Repo RequestRepo
	// Notify is the notification sink for all user-visible side effects.
	Notify RequestNotifier
}

// NewRequestService constructs a RequestService.
func NewRequestService(db *gorm.DB, r RequestRepo, n RequestNotifier) *RequestService {
	return &RequestService{DB: db, Repo: r, Notify: n}
}

// SplitItemLines turns the raw form input into item rows, one per line.
// Lines are trimmed but otherwise taken as-is. Blank lines are kept so the
// originalIndex of every item maps 1:1 to the submitted line number.
func SplitItemLines(itemLines string) []domain.RequestItem {
	lines := strings.Split(strings.ReplaceAll(itemLines, "\r\n", "\n"), "\n")
	items := make([]domain.RequestItem, len(lines))
	for i, line := range lines {
		items[i] = domain.RequestItem{
			OriginalIndex: i,
			Name:          strings.TrimSpace(line),
		}
	}
	return items
}

// Create builds and persists a new pending request from the submitted form.
// It first opens the request thread (so the thread ID can serve as the
// request ID), persists the record, then posts the staff-actions surface.
// A failure to reach the request forum aborts before any mutation with
// ErrChannelUnavailable; a failure to post the staff surface after the
// record exists is reported via ErrNotifyIncomplete.
func (s *RequestService) Create(ctx context.Context, requesterID, requesterUsername, characterName, itemLines, notes string) (*domain.ItemRequest, error) {
	items := SplitItemLines(itemLines)

	title := requestThreadTitle(requesterUsername, characterName)
	content := requestPostContent(requesterID, characterName, items, notes)

	post, err := s.Notify.CreateRequestThread(ctx, title, content)
	if err != nil {
		log.Error().Err(err).Str("requester_id", requesterID).Msg("creating request thread failed")
		return nil, ErrChannelUnavailable
	}

	req := &domain.ItemRequest{
		ID:                post.ThreadID,
		RequesterID:       requesterID,
		RequesterUsername: requesterUsername,
		CharacterName:     characterName,
		Notes:             notes,
		Status:            domain.StatusPending,
		InitialMessageID:  post.InitialMessageID,
		ThreadURL:         post.URL,
		Items:             items,
	}
	if err := s.Repo.CreateRequest(ctx, s.DB, req); err != nil {
		return nil, err
	}

	msgID, err := s.Notify.PostStaffActions(ctx, req.ID, StaffActionsContent)
	if err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("posting staff actions failed")
		return req, ErrNotifyIncomplete
	}
	req.ButtonsMessageID = msgID
	if err := s.Repo.SetButtonsMessage(ctx, s.DB, req.ID, msgID); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("storing staff actions message id failed")
		return req, ErrNotifyIncomplete
	}
	return req, nil
}

// MarkFulfilled transitions a request to fulfilled, marking every item
// delivered. Valid only from pending or partially_fulfilled. message is an
// optional note from the staff member relayed to the requester.
func (s *RequestService) MarkFulfilled(ctx context.Context, requestID, staffID, staffUsername, message string) (*domain.ItemRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(domain.StatusFulfilled) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	for i := range req.Items {
		req.Items[i].Fulfilled = true
	}
	req.Status = domain.StatusFulfilled
	req.FulfilledBy = staffID
	req.FulfilledByUsername = staffUsername
	req.FulfilledMessage = message
	req.FulfilledAt = &now
	if err := s.Repo.UpdateRequest(ctx, s.DB, req); err != nil {
		return nil, err
	}

	ok := s.editStaffSurface(ctx, req, staffID, false)
	ok = s.post(ctx, req.ID, statusUpdateFulfilled(staffID, message)) && ok
	ok = s.dm(ctx, req, dmFulfilled(req, staffUsername, message)) && ok
	ok = s.finishThread(ctx, req) && ok
	if !ok {
		return req, ErrNotifyIncomplete
	}
	return req, nil
}

// MarkDenied transitions a request to denied, a terminal state with no
// un-deny path. The reason is mandatory and must be at least
// MinDenyReasonLen characters; this is checked before anything is loaded or
// mutated.
func (s *RequestService) MarkDenied(ctx context.Context, requestID, staffID, staffUsername, reason string) (*domain.ItemRequest, error) {
	if len(strings.TrimSpace(reason)) < MinDenyReasonLen {
		return nil, ErrReasonTooShort
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(domain.StatusDenied) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	req.Status = domain.StatusDenied
	req.DeniedBy = staffID
	req.DeniedByUsername = staffUsername
	req.DenialReason = reason
	req.DeniedAt = &now
	if err := s.Repo.UpdateRequest(ctx, s.DB, req); err != nil {
		return nil, err
	}

	ok := s.editStaffSurface(ctx, req, staffID, false)
	ok = s.post(ctx, req.ID, statusUpdateDenied(staffID, reason)) && ok
	ok = s.dm(ctx, req, dmDenied(req, staffUsername, reason)) && ok
	ok = s.rename(ctx, req, threadLabel("DENIED", req)) && ok
	if !ok {
		return req, ErrNotifyIncomplete
	}
	return req, nil
}

// MarkItemsFulfilled marks the items whose originalIndex appears in
// selected as delivered. Re-selecting an already-fulfilled item is a no-op
// for that item and it is not counted in FulfilledNow. The status is
// recomputed afterwards: fulfilled when nothing remains pending (even
// through this partial path), partially_fulfilled otherwise.
func (s *RequestService) MarkItemsFulfilled(ctx context.Context, requestID, staffID, staffUsername string, selected []int) (*ItemsUpdate, error) {
	if len(selected) == 0 {
		return nil, ErrNoItemsSelected
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	chosen := make(map[int]bool, len(selected))
	for _, idx := range selected {
		chosen[idx] = true
	}

	upd := &ItemsUpdate{Request: req}
	for i := range req.Items {
		it := &req.Items[i]
		if chosen[it.OriginalIndex] {
			if !it.Fulfilled {
				it.Fulfilled = true
				upd.FulfilledNow = append(upd.FulfilledNow, it.Name)
			}
		} else if !it.Fulfilled {
			upd.StillPending = append(upd.StillPending, it.Name)
		}
	}

	next := req.RecomputeStatus()
	if !req.Status.CanTransition(next) {
		return nil, ErrInvalidTransition
	}
	req.Status = next
	req.LastUpdatedBy = staffID
	if err := s.Repo.UpdateRequest(ctx, s.DB, req); err != nil {
		return nil, err
	}

	done := next == domain.StatusFulfilled
	ok := s.editStaffSurface(ctx, req, staffID, !done)
	if done {
		ok = s.post(ctx, req.ID, statusUpdateFulfilled(staffID, "")) && ok
		ok = s.dm(ctx, req, dmAllDelivered(req, staffUsername)) && ok
		ok = s.finishThread(ctx, req) && ok
	} else {
		ok = s.post(ctx, req.ID, statusUpdatePartial(staffID, upd.FulfilledNow, upd.StillPending)) && ok
		ok = s.dm(ctx, req, dmPartial(req, staffUsername, upd.FulfilledNow, upd.StillPending)) && ok
		ok = s.rename(ctx, req, threadLabel("PARTIALLY FULFILLED", req)) && ok
	}
	if !ok {
		return upd, ErrNotifyIncomplete
	}
	return upd, nil
}

// Get returns the request aggregate for requestID, items in original order.
func (s *RequestService) Get(ctx context.Context, requestID string) (*domain.ItemRequest, error) {
	return s.load(ctx, requestID)
}

// ListPending returns the request's unfulfilled items, used to populate the
// item-selection menu. The slice is empty when everything is delivered;
// a missing request yields ErrRequestNotFound.
func (s *RequestService) ListPending(ctx context.Context, requestID string) ([]domain.RequestItem, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return req.PendingItems(), nil
}

func (s *RequestService) load(ctx context.Context, requestID string) (*domain.ItemRequest, error) {
	req, err := s.Repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// editStaffSurface updates the persistent staff-actions message for the
// request's current status. Missing message IDs are tolerated: the record
// predates the surface or the original post failed, so there is nothing to
// edit.
func (s *RequestService) editStaffSurface(ctx context.Context, req *domain.ItemRequest, staffID string, withButtons bool) bool {
	if req.ButtonsMessageID == "" {
		log.Warn().Str("request_id", req.ID).Msg("no staff actions message recorded, skipping edit")
		return true
	}
	if err := s.Notify.UpdateStaffActions(ctx, req.ID, req.ButtonsMessageID, staffActionsHeader(req.Status, staffID), withButtons); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("updating staff actions failed")
		return false
	}
	return true
}

func (s *RequestService) post(ctx context.Context, threadID, content string) bool {
	if err := s.Notify.PostStatusUpdate(ctx, threadID, content); err != nil {
		log.Error().Err(err).Str("request_id", threadID).Msg("posting status update failed")
		return false
	}
	return true
}

func (s *RequestService) dm(ctx context.Context, req *domain.ItemRequest, content string) bool {
	if err := s.Notify.NotifyUser(ctx, req.RequesterID, content); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Str("requester_id", req.RequesterID).Msg("notifying requester failed")
		return false
	}
	return true
}

func (s *RequestService) rename(ctx context.Context, req *domain.ItemRequest, name string) bool {
	if err := s.Notify.RenameThread(ctx, req.ID, name); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("renaming thread failed")
		return false
	}
	return true
}

// finishThread applies the fully-fulfilled thread treatment: the terminal
// rename plus a ✅ reaction on the original request message.
func (s *RequestService) finishThread(ctx context.Context, req *domain.ItemRequest) bool {
	ok := s.rename(ctx, req, threadLabel("FULFILLED", req))
	if req.InitialMessageID == "" {
		log.Warn().Str("request_id", req.ID).Msg("no initial message recorded, skipping reaction")
		return ok
	}
	if err := s.Notify.ReactToMessage(ctx, req.ID, req.InitialMessageID, "✅"); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("adding completion reaction failed")
		return false
	}
	return ok
}
