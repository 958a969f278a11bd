package domain

import "time"

// ProcessedInteraction records a Discord interaction ID that already reached
// a mutating handler. The gateway can redeliver interactions (and users can
// double-click components faster than the staff surface updates), so the
// router inserts a row before dispatching and drops duplicates on the unique
// key. Rows are purged after ExpiresAt; interaction IDs are never reused
// inside that window.
type ProcessedInteraction struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	InteractionID string `gorm:"type:varchar(32);not null;uniqueIndex:ux_processed_interaction"`
	CreatedAt     time.Time
	ExpiresAt     time.Time `gorm:"index"`
}

// TableName returns the database table name for ProcessedInteraction.
func (ProcessedInteraction) TableName() string { return "processed_interactions" }
