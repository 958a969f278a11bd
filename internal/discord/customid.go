// Package discord wires the Discord gateway to the application services. It
// routes incoming interactions to handlers, enforces staff authorization,
// rate-limits user-facing actions, and implements the notification sink used
// by the services.
//
// This file defines the typed component-identifier scheme. Discord component
// custom IDs are flat strings on the wire; every ID this bot emits or parses
// goes through CustomID so target user IDs ride in a distinct field instead
// of being split out of strings at call sites.
package discord

import "strings"

// Component, modal, and select identifiers. The wire values are stable;
// messages posted by older deployments must keep working.
const (
	// Bank panel buttons (user-facing).
	CIDMakeItemRequest = "make_item_request"
	CIDRequestStimulus = "request_stimulus"

	// Staff action buttons on a request thread.
	CIDRequestFulfilled = "request_fulfilled"
	CIDRequestDeny      = "request_deny"
	CIDManageItems      = "manage_items"

	// Item management select menu.
	CIDManageItemsSelect = "manage_items_select"

	// Stimulus approval button; carries the claimant's user ID as target.
	CIDStimulusMarkPaid = "stimulus_mark_paid"

	// Modals.
	CIDItemRequestModal = "item_request_modal"
	CIDFulfillModal     = "fulfill_request_modal"
	CIDDenyModal        = "deny_request_modal"
)

// CustomID is a parsed component identifier. Name is one of the CID
// constants (or the raw value for unknown IDs); Target carries the embedded
// subject ID for the identifier families that have one.
type CustomID struct {
	Name   string
	Target string
}

// Encode renders the wire form of the identifier.
func (c CustomID) Encode() string {
	if c.Target == "" {
		return c.Name
	}
	return c.Name + "_" + c.Target
}

// ParseCustomID decodes a wire identifier into its typed form. Only the
// stimulus approval family embeds a target today; everything else parses as
// a bare name.
func ParseCustomID(raw string) CustomID {
	if target, ok := strings.CutPrefix(raw, CIDStimulusMarkPaid+"_"); ok {
		return CustomID{Name: CIDStimulusMarkPaid, Target: target}
	}
	return CustomID{Name: raw}
}

// StaffOnly reports whether the identifier is restricted to authorized staff
// roles: the request_* family, the item management surface, and stimulus
// approval.
func (c CustomID) StaffOnly() bool {
	return strings.HasPrefix(c.Name, "request_") ||
		c.Name == CIDManageItems ||
		c.Name == CIDStimulusMarkPaid
}
