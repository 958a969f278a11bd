package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// ----- Fake repo -----

type fakeRequestRepo struct {
	created   *domain.ItemRequest
	createErr error

	stored    *domain.ItemRequest
	getErr    error
	getCalled bool

	updated   *domain.ItemRequest
	updateErr error

	buttonsReqID  string
	buttonsMsgID  string
	setButtonsErr error
}

func (r *fakeRequestRepo) CreateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	r.created = req
	return r.createErr
}

func (r *fakeRequestRepo) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ItemRequest, error) {
	r.getCalled = true
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.stored, nil
}

func (r *fakeRequestRepo) UpdateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	r.updated = req
	return r.updateErr
}

func (r *fakeRequestRepo) SetButtonsMessage(ctx context.Context, db *gorm.DB, id, messageID string) error {
	r.buttonsReqID, r.buttonsMsgID = id, messageID
	return r.setButtonsErr
}

// ----- Fake notifier -----

type fakeRequestNotifier struct {
	post      *ThreadPost
	createErr error

	staffMsgID string
	staffErr   error

	updateContent     string
	updateWithButtons bool
	updateErr         error

	statusPosts []string
	postErr     error

	dmUserID string
	dms      []string
	dmErr    error

	renames   []string
	renameErr error

	reactMsgID string
	reactEmoji string
	reactErr   error
}

func (n *fakeRequestNotifier) CreateRequestThread(ctx context.Context, title, content string) (*ThreadPost, error) {
	if n.createErr != nil {
		return nil, n.createErr
	}
	return n.post, nil
}

func (n *fakeRequestNotifier) PostStaffActions(ctx context.Context, threadID, content string) (string, error) {
	return n.staffMsgID, n.staffErr
}

func (n *fakeRequestNotifier) UpdateStaffActions(ctx context.Context, threadID, messageID, content string, withButtons bool) error {
	n.updateContent, n.updateWithButtons = content, withButtons
	return n.updateErr
}

func (n *fakeRequestNotifier) PostStatusUpdate(ctx context.Context, threadID, content string) error {
	n.statusPosts = append(n.statusPosts, content)
	return n.postErr
}

func (n *fakeRequestNotifier) NotifyUser(ctx context.Context, userID, content string) error {
	n.dmUserID = userID
	n.dms = append(n.dms, content)
	return n.dmErr
}

func (n *fakeRequestNotifier) RenameThread(ctx context.Context, threadID, name string) error {
	n.renames = append(n.renames, name)
	return n.renameErr
}

func (n *fakeRequestNotifier) ReactToMessage(ctx context.Context, threadID, messageID, emoji string) error {
	n.reactMsgID, n.reactEmoji = messageID, emoji
	return n.reactErr
}

func newTestService(repo *fakeRequestRepo, notify *fakeRequestNotifier) *RequestService {
	return NewRequestService(nil, repo, notify)
}

func pendingRequest(id string, itemNames ...string) *domain.ItemRequest {
	req := &domain.ItemRequest{
		ID:                id,
		RequesterID:       "u1",
		RequesterUsername: "grum",
		CharacterName:     "Grumpytoon",
		Status:            domain.StatusPending,
		ButtonsMessageID:  "btn1",
		InitialMessageID:  id,
		ThreadURL:         "https://discord.com/channels/g/" + id,
	}
	for i, name := range itemNames {
		req.Items = append(req.Items, domain.RequestItem{
			RequestID:     id,
			OriginalIndex: i,
			Name:          name,
		})
	}
	return req
}

// ----- Tests -----

func TestSplitItemLines_PreservesOrderAndCount(t *testing.T) {
	items := SplitItemLines("A\nB\nC")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"A", "B", "C"} {
		if items[i].OriginalIndex != i || items[i].Name != want {
			t.Errorf("item %d = {%d %q}; want {%d %q}", i, items[i].OriginalIndex, items[i].Name, i, want)
		}
	}
}

func TestSplitItemLines_WindowsNewlinesAndBlanks(t *testing.T) {
	items := SplitItemLines("  1x Sash  \r\n\r\n2x Orb")
	if len(items) != 3 {
		t.Fatalf("expected 3 items (blank line kept), got %d", len(items))
	}
	if items[0].Name != "1x Sash" {
		t.Errorf("item 0 not trimmed: %q", items[0].Name)
	}
	if items[1].Name != "" || items[1].OriginalIndex != 1 {
		t.Errorf("blank line should survive as item 1, got {%d %q}", items[1].OriginalIndex, items[1].Name)
	}
	if items[2].Name != "2x Orb" || items[2].OriginalIndex != 2 {
		t.Errorf("item 2 = {%d %q}", items[2].OriginalIndex, items[2].Name)
	}
}

func TestCreate_Success(t *testing.T) {
	r := &fakeRequestRepo{}
	n := &fakeRequestNotifier{
		post:       &ThreadPost{ThreadID: "th1", InitialMessageID: "th1", URL: "https://discord.com/channels/g/th1"},
		staffMsgID: "btn1",
	}
	s := newTestService(r, n)

	req, err := s.Create(context.Background(), "u1", "grum", "Grumpytoon", "1x Sash\n2x Orb", "after 5pm")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if req.ID != "th1" {
		t.Fatalf("request ID = %q; want thread ID", req.ID)
	}
	if req.Status != domain.StatusPending {
		t.Fatalf("status = %s; want pending", req.Status)
	}
	if len(req.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(req.Items))
	}
	if r.created != req {
		t.Fatalf("request not persisted")
	}
	if req.ButtonsMessageID != "btn1" || r.buttonsMsgID != "btn1" || r.buttonsReqID != "th1" {
		t.Fatalf("staff actions message not recorded: %q / %q", req.ButtonsMessageID, r.buttonsMsgID)
	}
}

func TestCreate_ThreadFailureAbortsBeforePersist(t *testing.T) {
	r := &fakeRequestRepo{}
	n := &fakeRequestNotifier{createErr: errors.New("forum missing")}
	s := newTestService(r, n)

	_, err := s.Create(context.Background(), "u1", "grum", "Grumpytoon", "1x Sash", "")
	if !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable, got %v", err)
	}
	if r.created != nil {
		t.Fatalf("nothing should be persisted when the thread cannot be created")
	}
}

func TestCreate_StaffSurfaceFailureIsPartial(t *testing.T) {
	r := &fakeRequestRepo{}
	n := &fakeRequestNotifier{
		post:     &ThreadPost{ThreadID: "th1", InitialMessageID: "th1", URL: "u"},
		staffErr: errors.New("send failed"),
	}
	s := newTestService(r, n)

	req, err := s.Create(context.Background(), "u1", "grum", "Grumpytoon", "1x Sash", "")
	if !errors.Is(err, ErrNotifyIncomplete) {
		t.Fatalf("expected ErrNotifyIncomplete, got %v", err)
	}
	if req == nil || r.created == nil {
		t.Fatalf("request must still be persisted")
	}
	if req.ButtonsMessageID != "" {
		t.Fatalf("no buttons message should be recorded on failure")
	}
}

func TestMarkFulfilled_Success(t *testing.T) {
	stored := pendingRequest("thread9876", "1x Sash", "2x Orb")
	r := &fakeRequestRepo{stored: stored}
	n := &fakeRequestNotifier{}
	s := newTestService(r, n)

	req, err := s.MarkFulfilled(context.Background(), "thread9876", "staff1", "banker", "enjoy")
	if err != nil {
		t.Fatalf("MarkFulfilled error: %v", err)
	}
	if req.Status != domain.StatusFulfilled {
		t.Fatalf("status = %s; want fulfilled", req.Status)
	}
	if !req.AllFulfilled() {
		t.Fatalf("all items must be fulfilled")
	}
	if req.FulfilledBy != "staff1" || req.FulfilledByUsername != "banker" || req.FulfilledMessage != "enjoy" || req.FulfilledAt == nil {
		t.Fatalf("audit fields not set: %+v", req)
	}
	if r.updated == nil {
		t.Fatalf("update not persisted")
	}
	if n.updateWithButtons {
		t.Fatalf("terminal state must drop the action buttons")
	}
	if len(n.renames) != 1 || n.renames[0] != "[FULFILLED] Grumpytoon - grum (thre...)" {
		t.Fatalf("rename = %v", n.renames)
	}
	if n.reactEmoji != "✅" || n.reactMsgID != "thread9876" {
		t.Fatalf("completion reaction = %q on %q", n.reactEmoji, n.reactMsgID)
	}
	if n.dmUserID != "u1" || len(n.dms) != 1 || !strings.Contains(n.dms[0], "FULLY FULFILLED") {
		t.Fatalf("requester DM = %v", n.dms)
	}
}

func TestMarkFulfilled_NotFound(t *testing.T) {
	r := &fakeRequestRepo{getErr: gorm.ErrRecordNotFound}
	s := newTestService(r, &fakeRequestNotifier{})

	_, err := s.MarkFulfilled(context.Background(), "missing", "staff1", "banker", "")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestMarkFulfilled_TerminalRejected(t *testing.T) {
	stored := pendingRequest("th1", "1x Sash")
	stored.Status = domain.StatusDenied
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	_, err := s.MarkFulfilled(context.Background(), "th1", "staff1", "banker", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if r.updated != nil {
		t.Fatalf("terminal request must not be written")
	}
}

func TestMarkFulfilled_DMFailureIsPartial(t *testing.T) {
	stored := pendingRequest("th1", "1x Sash")
	r := &fakeRequestRepo{stored: stored}
	n := &fakeRequestNotifier{dmErr: errors.New("dms closed")}
	s := newTestService(r, n)

	req, err := s.MarkFulfilled(context.Background(), "th1", "staff1", "banker", "")
	if !errors.Is(err, ErrNotifyIncomplete) {
		t.Fatalf("expected ErrNotifyIncomplete, got %v", err)
	}
	if req.Status != domain.StatusFulfilled || r.updated == nil {
		t.Fatalf("mutation must stand despite DM failure")
	}
}

func TestMarkDenied_ReasonTooShort(t *testing.T) {
	r := &fakeRequestRepo{stored: pendingRequest("th1", "1x Sash")}
	s := newTestService(r, &fakeRequestNotifier{})

	_, err := s.MarkDenied(context.Background(), "th1", "staff1", "banker", "  too short ")
	if !errors.Is(err, ErrReasonTooShort) {
		t.Fatalf("expected ErrReasonTooShort, got %v", err)
	}
	if r.getCalled {
		t.Fatalf("reason must be validated before anything is loaded")
	}
}

func TestMarkDenied_Success(t *testing.T) {
	stored := pendingRequest("thread9876", "1x Sash")
	r := &fakeRequestRepo{stored: stored}
	n := &fakeRequestNotifier{}
	s := newTestService(r, n)

	req, err := s.MarkDenied(context.Background(), "thread9876", "staff1", "banker", "items out of stock")
	if err != nil {
		t.Fatalf("MarkDenied error: %v", err)
	}
	if req.Status != domain.StatusDenied {
		t.Fatalf("status = %s; want denied", req.Status)
	}
	if req.DeniedBy != "staff1" || req.DenialReason != "items out of stock" || req.DeniedAt == nil {
		t.Fatalf("audit fields not set: %+v", req)
	}
	if req.Items[0].Fulfilled {
		t.Fatalf("denial must not mark items fulfilled")
	}
	if len(n.renames) != 1 || n.renames[0] != "[DENIED] Grumpytoon - grum (thre...)" {
		t.Fatalf("rename = %v", n.renames)
	}
	if n.reactEmoji != "" {
		t.Fatalf("denial must not add the completion reaction")
	}
}

func TestMarkDenied_FromPartiallyFulfilled(t *testing.T) {
	stored := pendingRequest("th1", "1x Sash", "2x Orb")
	stored.Status = domain.StatusPartiallyFulfilled
	stored.Items[0].Fulfilled = true
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	req, err := s.MarkDenied(context.Background(), "th1", "staff1", "banker", "cannot complete this")
	if err != nil {
		t.Fatalf("MarkDenied error: %v", err)
	}
	if req.Status != domain.StatusDenied {
		t.Fatalf("status = %s; want denied", req.Status)
	}
}

func TestMarkItemsFulfilled_PartialThenComplete(t *testing.T) {
	stored := pendingRequest("thread9876", "1x Sash", "2x Orb")
	r := &fakeRequestRepo{stored: stored}
	n := &fakeRequestNotifier{}
	s := newTestService(r, n)

	upd, err := s.MarkItemsFulfilled(context.Background(), "thread9876", "staff1", "banker", []int{0})
	if err != nil {
		t.Fatalf("first update error: %v", err)
	}
	if upd.Request.Status != domain.StatusPartiallyFulfilled {
		t.Fatalf("status = %s; want partially_fulfilled", upd.Request.Status)
	}
	if len(upd.FulfilledNow) != 1 || upd.FulfilledNow[0] != "1x Sash" {
		t.Fatalf("FulfilledNow = %v; want [1x Sash]", upd.FulfilledNow)
	}
	if len(upd.StillPending) != 1 || upd.StillPending[0] != "2x Orb" {
		t.Fatalf("StillPending = %v; want [2x Orb]", upd.StillPending)
	}
	if !n.updateWithButtons {
		t.Fatalf("partial state must keep the action buttons")
	}
	if len(n.renames) != 1 || n.renames[0] != "[PARTIALLY FULFILLED] Grumpytoon - grum (thre...)" {
		t.Fatalf("rename = %v", n.renames)
	}

	// Re-selecting item 0 alongside item 1 reports only item 1 as new.
	upd2, err := s.MarkItemsFulfilled(context.Background(), "thread9876", "staff1", "banker", []int{0, 1})
	if err != nil {
		t.Fatalf("second update error: %v", err)
	}
	if upd2.Request.Status != domain.StatusFulfilled {
		t.Fatalf("status = %s; want fulfilled", upd2.Request.Status)
	}
	if len(upd2.FulfilledNow) != 1 || upd2.FulfilledNow[0] != "2x Orb" {
		t.Fatalf("FulfilledNow = %v; want [2x Orb] only", upd2.FulfilledNow)
	}
	if len(upd2.StillPending) != 0 {
		t.Fatalf("StillPending = %v; want empty", upd2.StillPending)
	}
	if n.reactEmoji != "✅" {
		t.Fatalf("completing via partial path must add the reaction")
	}
}

func TestMarkItemsFulfilled_StatusMatchesItemState(t *testing.T) {
	stored := pendingRequest("th1", "A", "B", "C")
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	upd, err := s.MarkItemsFulfilled(context.Background(), "th1", "staff1", "banker", []int{0, 1, 2})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if (upd.Request.Status == domain.StatusFulfilled) != upd.Request.AllFulfilled() {
		t.Fatalf("status %s inconsistent with item state", upd.Request.Status)
	}
	if upd.Request.Status != domain.StatusFulfilled {
		t.Fatalf("selecting every item must fully fulfill the request")
	}
}

func TestMarkItemsFulfilled_NoSelection(t *testing.T) {
	r := &fakeRequestRepo{stored: pendingRequest("th1", "A")}
	s := newTestService(r, &fakeRequestNotifier{})

	if _, err := s.MarkItemsFulfilled(context.Background(), "th1", "staff1", "banker", nil); !errors.Is(err, ErrNoItemsSelected) {
		t.Fatalf("expected ErrNoItemsSelected, got %v", err)
	}
	if r.getCalled {
		t.Fatalf("empty selection must be rejected before loading")
	}
}

func TestMarkItemsFulfilled_TerminalRejected(t *testing.T) {
	stored := pendingRequest("th1", "A")
	stored.Status = domain.StatusFulfilled
	stored.Items[0].Fulfilled = true
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	if _, err := s.MarkItemsFulfilled(context.Background(), "th1", "staff1", "banker", []int{0}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	stored := pendingRequest("th1", "A", "B")
	stored.Items[0].Fulfilled = true
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	pending, err := s.ListPending(context.Background(), "th1")
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "B" {
		t.Fatalf("pending = %v; want [B]", pending)
	}

	r2 := &fakeRequestRepo{getErr: gorm.ErrRecordNotFound}
	s2 := newTestService(r2, &fakeRequestNotifier{})
	if _, err := s2.ListPending(context.Background(), "missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	stored := pendingRequest("th1", "A")
	r := &fakeRequestRepo{stored: stored}
	s := newTestService(r, &fakeRequestNotifier{})

	req, err := s.Get(context.Background(), "th1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if req != stored {
		t.Fatalf("expected the stored aggregate back")
	}
}
