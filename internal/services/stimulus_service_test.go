package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
	"github.com/thj-dnt/bankbot/internal/repo"
)

// ----- Fake repo -----

type fakeClaimRepo struct {
	stored *domain.StimulusClaim
	getErr error

	created   *domain.StimulusClaim
	createErr error

	paidUserID  string
	paidStaffID string
	markPaidErr error
}

func (r *fakeClaimRepo) GetClaim(ctx context.Context, db *gorm.DB, userID string) (*domain.StimulusClaim, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.stored, nil
}

func (r *fakeClaimRepo) CreateClaim(ctx context.Context, db *gorm.DB, claim *domain.StimulusClaim) error {
	r.created = claim
	return r.createErr
}

func (r *fakeClaimRepo) MarkClaimPaid(ctx context.Context, db *gorm.DB, userID, staffID, staffUsername string, at time.Time) error {
	r.paidUserID, r.paidStaffID = userID, staffID
	return r.markPaidErr
}

// ----- Fake notifier -----

type fakeStimulusNotifier struct {
	promptCalled bool
	promptErr    error

	updatedContent string
	updateErr      error

	roleUserID string
	roleErr    error

	dmUserID string
	dm       string
	dmErr    error
}

func (n *fakeStimulusNotifier) PostClaimPrompt(ctx context.Context, userID, username string) (string, string, error) {
	n.promptCalled = true
	if n.promptErr != nil {
		return "", "", n.promptErr
	}
	return "chan1", "msg1", nil
}

func (n *fakeStimulusNotifier) UpdateClaimPrompt(ctx context.Context, channelID, messageID, content string) error {
	n.updatedContent = content
	return n.updateErr
}

func (n *fakeStimulusNotifier) GrantClaimedRole(ctx context.Context, userID string) error {
	n.roleUserID = userID
	return n.roleErr
}

func (n *fakeStimulusNotifier) NotifyUser(ctx context.Context, userID, content string) error {
	n.dmUserID = userID
	n.dm = content
	return n.dmErr
}

// ----- Tests -----

func TestClaim_Success(t *testing.T) {
	r := &fakeClaimRepo{getErr: gorm.ErrRecordNotFound}
	n := &fakeStimulusNotifier{}
	s := NewStimulusService(nil, r, n)

	claim, err := s.Claim(context.Background(), "u1", "grum")
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if claim.ID != "u1" || claim.Status != domain.ClaimPending {
		t.Fatalf("claim = %+v", claim)
	}
	if claim.OfficerChannelID != "chan1" || claim.OfficerMessageID != "msg1" {
		t.Fatalf("officer surface not recorded: %+v", claim)
	}
	if r.created != claim {
		t.Fatalf("claim not persisted")
	}
}

func TestClaim_ExistingClaimRejected(t *testing.T) {
	// Any prior claim blocks, paid or pending.
	for _, status := range []domain.ClaimStatus{domain.ClaimPending, domain.ClaimPaid} {
		r := &fakeClaimRepo{stored: &domain.StimulusClaim{ID: "u1", Status: status}}
		n := &fakeStimulusNotifier{}
		s := NewStimulusService(nil, r, n)

		_, err := s.Claim(context.Background(), "u1", "grum")
		if !errors.Is(err, ErrClaimExists) {
			t.Fatalf("status %s: expected ErrClaimExists, got %v", status, err)
		}
		if n.promptCalled {
			t.Fatalf("status %s: no prompt may be posted for an existing claim", status)
		}
		if r.created != nil {
			t.Fatalf("status %s: no second record may be created", status)
		}
	}
}

func TestClaim_GetErrorPropagates(t *testing.T) {
	sentinel := errors.New("db down")
	r := &fakeClaimRepo{getErr: sentinel}
	s := NewStimulusService(nil, r, &fakeStimulusNotifier{})

	if _, err := s.Claim(context.Background(), "u1", "grum"); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestClaim_PromptFailureAbortsBeforePersist(t *testing.T) {
	r := &fakeClaimRepo{getErr: gorm.ErrRecordNotFound}
	n := &fakeStimulusNotifier{promptErr: errors.New("channel missing")}
	s := NewStimulusService(nil, r, n)

	if _, err := s.Claim(context.Background(), "u1", "grum"); !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable, got %v", err)
	}
	if r.created != nil {
		t.Fatalf("no record may be created when the prompt cannot be posted")
	}
}

func TestClaim_DuplicateRaceMapsToClaimExists(t *testing.T) {
	r := &fakeClaimRepo{getErr: gorm.ErrRecordNotFound, createErr: repo.ErrDuplicate}
	s := NewStimulusService(nil, r, &fakeStimulusNotifier{})

	if _, err := s.Claim(context.Background(), "u1", "grum"); !errors.Is(err, ErrClaimExists) {
		t.Fatalf("expected ErrClaimExists on duplicate insert, got %v", err)
	}
}

func TestApprove_Success(t *testing.T) {
	r := &fakeClaimRepo{stored: &domain.StimulusClaim{
		ID:               "u1",
		Status:           domain.ClaimPending,
		OfficerChannelID: "chan1",
		OfficerMessageID: "msg1",
	}}
	n := &fakeStimulusNotifier{}
	s := NewStimulusService(nil, r, n)

	claim, err := s.Approve(context.Background(), "u1", "staff1", "banker")
	if err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if claim.Status != domain.ClaimPaid || claim.PaidBy != "staff1" || claim.PaidAt == nil {
		t.Fatalf("claim not marked paid: %+v", claim)
	}
	if n.roleUserID != "u1" {
		t.Fatalf("claimed role not granted")
	}
	if r.paidUserID != "u1" || r.paidStaffID != "staff1" {
		t.Fatalf("MarkClaimPaid args = %q/%q", r.paidUserID, r.paidStaffID)
	}
	if !strings.Contains(n.updatedContent, "PAID") {
		t.Fatalf("prompt not updated to paid: %q", n.updatedContent)
	}
	if n.dmUserID != "u1" || !strings.Contains(n.dm, "5000p") {
		t.Fatalf("claimant DM = %q", n.dm)
	}
}

func TestApprove_NotFound(t *testing.T) {
	r := &fakeClaimRepo{getErr: gorm.ErrRecordNotFound}
	s := NewStimulusService(nil, r, &fakeStimulusNotifier{})

	if _, err := s.Approve(context.Background(), "u1", "staff1", "banker"); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestApprove_AlreadyPaidRejected(t *testing.T) {
	r := &fakeClaimRepo{stored: &domain.StimulusClaim{ID: "u1", Status: domain.ClaimPaid}}
	n := &fakeStimulusNotifier{}
	s := NewStimulusService(nil, r, n)

	if _, err := s.Approve(context.Background(), "u1", "staff1", "banker"); !errors.Is(err, ErrClaimAlreadyPaid) {
		t.Fatalf("expected ErrClaimAlreadyPaid, got %v", err)
	}
	if n.roleUserID != "" {
		t.Fatalf("role must not be granted twice")
	}
}

func TestApprove_RoleFailureLeavesClaimPending(t *testing.T) {
	r := &fakeClaimRepo{stored: &domain.StimulusClaim{ID: "u1", Status: domain.ClaimPending}}
	n := &fakeStimulusNotifier{roleErr: errors.New("role missing")}
	s := NewStimulusService(nil, r, n)

	if _, err := s.Approve(context.Background(), "u1", "staff1", "banker"); !errors.Is(err, ErrRoleUnavailable) {
		t.Fatalf("expected ErrRoleUnavailable, got %v", err)
	}
	if r.paidUserID != "" {
		t.Fatalf("claim must stay pending when the role cannot be assigned")
	}
}

func TestApprove_LostRaceMapsToAlreadyPaid(t *testing.T) {
	r := &fakeClaimRepo{
		stored:      &domain.StimulusClaim{ID: "u1", Status: domain.ClaimPending},
		markPaidErr: gorm.ErrRecordNotFound,
	}
	s := NewStimulusService(nil, r, &fakeStimulusNotifier{})

	if _, err := s.Approve(context.Background(), "u1", "staff1", "banker"); !errors.Is(err, ErrClaimAlreadyPaid) {
		t.Fatalf("expected ErrClaimAlreadyPaid on lost race, got %v", err)
	}
}

func TestApprove_DMFailureIsPartial(t *testing.T) {
	r := &fakeClaimRepo{stored: &domain.StimulusClaim{ID: "u1", Status: domain.ClaimPending}}
	n := &fakeStimulusNotifier{dmErr: errors.New("dms closed")}
	s := NewStimulusService(nil, r, n)

	claim, err := s.Approve(context.Background(), "u1", "staff1", "banker")
	if !errors.Is(err, ErrNotifyIncomplete) {
		t.Fatalf("expected ErrNotifyIncomplete, got %v", err)
	}
	if claim.Status != domain.ClaimPaid {
		t.Fatalf("mutation must stand despite DM failure")
	}
}
