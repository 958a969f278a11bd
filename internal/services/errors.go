// Package services defines the business logic for the item-request lifecycle
// and the new-member stimulus claim. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing ephemeral messages is performed at the
// interaction-handler layer.
package services

import "errors"

// Request lifecycle errors.
var (
	// ErrRequestNotFound indicates that no request record exists for the
	// given thread ID.
	ErrRequestNotFound = errors.New("request not found")

	// ErrInvalidTransition is returned when an operation is attempted from a
	// status that does not permit it (e.g. fulfilling a denied request).
	ErrInvalidTransition = errors.New("request status does not permit this action")

	// ErrReasonTooShort is returned when a denial reason is shorter than the
	// required minimum. It is checked before any state mutation.
	ErrReasonTooShort = errors.New("denial reason too short")

	// ErrNoItemsSelected is returned when a partial-fulfillment update names
	// no items.
	ErrNoItemsSelected = errors.New("no items selected")
)

// Stimulus claim errors.
var (
	// ErrClaimExists indicates the user already has a stimulus claim record,
	// in any status. Claims are one-time-ever per account.
	ErrClaimExists = errors.New("stimulus already claimed")

	// ErrClaimNotFound indicates no claim record exists for the user.
	ErrClaimNotFound = errors.New("stimulus claim not found")

	// ErrClaimAlreadyPaid is returned when approving a claim that is no
	// longer pending, so a double-click cannot double-grant the role.
	ErrClaimAlreadyPaid = errors.New("stimulus claim already paid")
)

// Downstream / side-effect errors.
var (
	// ErrChannelUnavailable indicates a configured destination channel could
	// not be reached; the operation aborts before any mutation.
	ErrChannelUnavailable = errors.New("destination channel unavailable")

	// ErrRoleUnavailable indicates the configured claimed-role could not be
	// granted; the approval aborts before any mutation.
	ErrRoleUnavailable = errors.New("claimed role unavailable")

	// ErrNotifyIncomplete is returned when the record mutation succeeded but
	// one or more dependent notification steps failed. Nothing is rolled
	// back; the failed steps are logged and the actor is informed.
	ErrNotifyIncomplete = errors.New("record updated but some notifications failed")
)
