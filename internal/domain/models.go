package domain

import (
	"time"
)

// ItemRequest represents one guild-bank item request. Its ID is the Discord
// thread that hosts the request, so a request and its discussion context are
// the same identifier.
//
// Fields:
//   - ID: originating thread ID (primary key).
//   - RequesterID / RequesterUsername: who submitted the form.
//   - CharacterName: in-game character the items should be sent to.
//   - Notes: optional free-form notes from the requester.
//   - Items: ordered item rows; OriginalIndex is the stable selection key.
//   - Status: lifecycle state, see Status.
//   - ButtonsMessageID: the staff-actions message edited in place as status
//     changes; empty when the message could not be posted.
//   - InitialMessageID: the first message of the thread, used for the
//     completion reaction; empty when Discord did not report it.
//   - ThreadURL: deep link included in requester notifications.
//   - FulfilledBy / DeniedBy and the *Username/*At pairs: audit trail.
type ItemRequest struct {
	ID                  string `gorm:"type:varchar(32);primaryKey"`
	RequesterID         string `gorm:"type:varchar(32);not null;index"`
	RequesterUsername   string `gorm:"type:varchar(64);not null"`
	CharacterName       string `gorm:"type:varchar(64);not null"`
	Notes               string `gorm:"type:text"`
	Status              Status `gorm:"type:varchar(24);not null;default:'pending'"`
	ButtonsMessageID    string `gorm:"type:varchar(32)"`
	InitialMessageID    string `gorm:"type:varchar(32)"`
	ThreadURL           string `gorm:"type:varchar(128)"`
	FulfilledBy         string `gorm:"type:varchar(32)"`
	FulfilledByUsername string `gorm:"type:varchar(64)"`
	FulfilledMessage    string `gorm:"type:text"`
	FulfilledAt         *time.Time
	DeniedBy            string `gorm:"type:varchar(32)"`
	DeniedByUsername    string `gorm:"type:varchar(64)"`
	DenialReason        string `gorm:"type:text"`
	DeniedAt            *time.Time
	LastUpdatedBy       string `gorm:"type:varchar(32)"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items []RequestItem `gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ItemRequest.
func (ItemRequest) TableName() string { return "item_requests" }

// RequestItem is one requested line item. OriginalIndex is the position of
// the line in the submitted form, unique within a request and never
// reassigned, so partial-fulfillment selections stay stable across edits.
type RequestItem struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	RequestID     string `gorm:"type:varchar(32);not null;index;uniqueIndex:ux_request_item_index"`
	OriginalIndex int    `gorm:"not null;uniqueIndex:ux_request_item_index"`
	Name          string `gorm:"type:text;not null"`
	Fulfilled     bool   `gorm:"not null;default:false"`
}

// TableName returns the database table name for RequestItem.
func (RequestItem) TableName() string { return "request_items" }

// AllFulfilled reports whether every item on the request is fulfilled.
// Vacuously true for an empty item list.
func (r *ItemRequest) AllFulfilled() bool {
	for _, it := range r.Items {
		if !it.Fulfilled {
			return false
		}
	}
	return true
}

// PendingItems returns the items not yet fulfilled, in original order.
func (r *ItemRequest) PendingItems() []RequestItem {
	var out []RequestItem
	for _, it := range r.Items {
		if !it.Fulfilled {
			out = append(out, it)
		}
	}
	return out
}

// RecomputeStatus derives the non-terminal status from item state:
// StatusFulfilled when every item is fulfilled, StatusPartiallyFulfilled
// otherwise. It never produces StatusDenied.
func (r *ItemRequest) RecomputeStatus() Status {
	if r.AllFulfilled() {
		return StatusFulfilled
	}
	return StatusPartiallyFulfilled
}

// StimulusClaim is the one-time new-member stimulus record. Its ID is the
// claimant's user ID; existence of the row, regardless of status, blocks any
// further claim by that user.
type StimulusClaim struct {
	ID                string      `gorm:"type:varchar(32);primaryKey"`
	RequesterUsername string      `gorm:"type:varchar(64);not null"`
	Status            ClaimStatus `gorm:"type:varchar(16);not null;default:'pending'"`
	OfficerMessageID  string      `gorm:"type:varchar(32)"`
	OfficerChannelID  string      `gorm:"type:varchar(32)"`
	PaidBy            string      `gorm:"type:varchar(32)"`
	PaidByUsername    string      `gorm:"type:varchar(64)"`
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the database table name for StimulusClaim.
func (StimulusClaim) TableName() string { return "stimulus_claims" }
