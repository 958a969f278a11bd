package domain

import "testing"

func requestWithItems(fulfilled ...bool) *ItemRequest {
	req := &ItemRequest{ID: "t1", Status: StatusPending}
	for i, f := range fulfilled {
		req.Items = append(req.Items, RequestItem{
			RequestID:     "t1",
			OriginalIndex: i,
			Name:          "item",
			Fulfilled:     f,
		})
	}
	return req
}

func TestAllFulfilled(t *testing.T) {
	if !requestWithItems(true, true).AllFulfilled() {
		t.Fatalf("all items fulfilled, want true")
	}
	if requestWithItems(true, false).AllFulfilled() {
		t.Fatalf("one item pending, want false")
	}
	if !requestWithItems().AllFulfilled() {
		t.Fatalf("empty item list is vacuously fulfilled")
	}
}

func TestPendingItems_PreservesOriginalOrder(t *testing.T) {
	req := requestWithItems(true, false, false, true)
	pending := req.PendingItems()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending items, got %d", len(pending))
	}
	if pending[0].OriginalIndex != 1 || pending[1].OriginalIndex != 2 {
		t.Fatalf("pending indices = %d,%d; want 1,2", pending[0].OriginalIndex, pending[1].OriginalIndex)
	}
}

func TestRecomputeStatus(t *testing.T) {
	if got := requestWithItems(true, true).RecomputeStatus(); got != StatusFulfilled {
		t.Fatalf("RecomputeStatus = %s; want fulfilled", got)
	}
	if got := requestWithItems(true, false).RecomputeStatus(); got != StatusPartiallyFulfilled {
		t.Fatalf("RecomputeStatus = %s; want partially_fulfilled", got)
	}
	// Denied is never derived from item state.
	req := requestWithItems(false)
	req.Status = StatusDenied
	if got := req.RecomputeStatus(); got != StatusPartiallyFulfilled {
		t.Fatalf("RecomputeStatus = %s; want partially_fulfilled", got)
	}
}
