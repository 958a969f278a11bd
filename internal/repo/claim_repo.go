// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// StimulusClaim model.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// ErrDuplicate indicates that a row already exists for a unique key
// (a second stimulus claim for the same user, or a redelivered interaction).
var ErrDuplicate = errors.New("duplicate")

// GetClaim fetches the stimulus claim for userID, or ErrNotFound.
func GetClaim(ctx context.Context, db *gorm.DB, userID string) (*domain.StimulusClaim, error) {
	var c domain.StimulusClaim
	err := db.WithContext(ctx).First(&c, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClaim inserts a pending claim keyed by the claimant's user ID.
// Returns ErrDuplicate when a claim already exists for that user, which is
// the persistence-level backstop for the one-time-ever semantics.
func CreateClaim(ctx context.Context, db *gorm.DB, claim *domain.StimulusClaim) error {
	claim.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(claim).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// MarkClaimPaid transitions a claim to paid with audit fields. Returns
// ErrNotFound when the claim does not exist or is no longer pending, so a
// concurrent double-approval loses cleanly.
func MarkClaimPaid(ctx context.Context, db *gorm.DB, userID, staffID, staffUsername string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.StimulusClaim{}).
		Where("id = ? AND status = ?", userID, domain.ClaimPending).
		Updates(map[string]any{
			"status":           domain.ClaimPaid,
			"paid_by":          staffID,
			"paid_by_username": staffUsername,
			"paid_at":          at,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
