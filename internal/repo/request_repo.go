// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ItemRequest aggregate (request row plus its item rows).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Status transitions are validated by the
// service layer before anything here is called.
//
// Error semantics:
//   - When a request is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRequest inserts a new ItemRequest together with its item rows.
// CreatedAt is set to UTC. The caller supplies the ID (thread ID).
func CreateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	req.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(req).Error
}

// GetRequest fetches a request by thread ID with its items preloaded in
// original-index order. Returns ErrNotFound if the record does not exist.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ItemRequest, error) {
	var req domain.ItemRequest
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("original_index asc")
		}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRequest persists the request's status, audit fields, and the
// fulfilled flag of every item, atomically. Item names and indices are
// immutable after creation and are not written back.
func UpdateRequest(ctx context.Context, db *gorm.DB, req *domain.ItemRequest) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.ItemRequest{}).
			Where("id = ?", req.ID).
			Updates(map[string]any{
				"status":                req.Status,
				"fulfilled_by":          req.FulfilledBy,
				"fulfilled_by_username": req.FulfilledByUsername,
				"fulfilled_message":     req.FulfilledMessage,
				"fulfilled_at":          req.FulfilledAt,
				"denied_by":             req.DeniedBy,
				"denied_by_username":    req.DeniedByUsername,
				"denial_reason":         req.DenialReason,
				"denied_at":             req.DeniedAt,
				"last_updated_by":       req.LastUpdatedBy,
				"updated_at":            time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, it := range req.Items {
			if err := tx.Model(&domain.RequestItem{}).
				Where("request_id = ? AND original_index = ?", req.ID, it.OriginalIndex).
				Update("fulfilled", it.Fulfilled).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetButtonsMessage records the ID of the staff-actions message for a
// request. Returns ErrNotFound if no rows were affected.
func SetButtonsMessage(ctx context.Context, db *gorm.DB, id, messageID string) error {
	res := db.WithContext(ctx).
		Model(&domain.ItemRequest{}).
		Where("id = ?", id).
		Update("buttons_message_id", messageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
