// Package domain defines the persistence models for item requests and
// stimulus claims, plus the request status state machine. These types are
// mapped with GORM and form the core data layer of the bot.
package domain

// Status is the lifecycle state of an item request.
type Status string

// Request lifecycle states. A request starts as StatusPending and ends in
// either StatusFulfilled or StatusDenied; both terminal states admit no
// further item edits.
const (
	StatusPending            Status = "pending"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusFulfilled          Status = "fulfilled"
	StatusDenied             Status = "denied"
)

// requestTransitions is the explicit transition table for request statuses.
// Every mutating operation checks it before touching the record, instead of
// inferring validity from ad hoc field checks.
var requestTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPartiallyFulfilled: true,
		StatusFulfilled:          true,
		StatusDenied:             true,
	},
	StatusPartiallyFulfilled: {
		StatusPartiallyFulfilled: true,
		StatusFulfilled:          true,
		StatusDenied:             true,
	},
	StatusFulfilled: {},
	StatusDenied:    {},
}

// CanTransition reports whether moving from s to next is a legal request
// transition.
func (s Status) CanTransition(next Status) bool {
	return requestTransitions[s][next]
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

// ClaimStatus is the lifecycle state of a stimulus claim.
type ClaimStatus string

// Stimulus claim states. ClaimPaid is terminal.
const (
	ClaimPending ClaimStatus = "pending"
	ClaimPaid    ClaimStatus = "paid"
)
