// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// ProcessedInteraction model used to drop redelivered gateway interactions
// before they reach a mutating handler.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// MarkInteractionProcessed inserts a dedupe record for interactionID and
// returns ErrDuplicate when one already exists, meaning this delivery must
// be ignored.
func MarkInteractionProcessed(ctx context.Context, db *gorm.DB, interactionID string, ttl time.Duration) error {
	now := time.Now().UTC()
	rec := &domain.ProcessedInteraction{
		ID:            uuid.NewString(),
		InteractionID: interactionID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// PurgeExpiredInteractions deletes dedupe records whose TTL has elapsed and
// returns the number of rows removed.
func PurgeExpiredInteractions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.ProcessedInteraction{})
	return res.RowsAffected, res.Error
}
