package models

import (
	"testing"
	"time"
)

func TestSubscriptionActiveKeyLifecycle(t *testing.T) {
	sub := &Subscription{UserID: 7}

	sub.MarkActive()
	if sub.Status != SubscriptionStatusActive {
		t.Fatalf("expected ACTIVE, got %s", sub.Status)
	}
	if sub.ActiveKey == nil || *sub.ActiveKey != 7 {
		t.Fatalf("expected active key to hold the user id, got %v", sub.ActiveKey)
	}

	sub.MarkPaused(time.Now())
	if sub.ActiveKey != nil {
		t.Fatalf("pause must release the active key")
	}
	if sub.PausedAt == nil {
		t.Fatalf("pause must stamp PausedAt")
	}

	sub.MarkActive()
	if sub.ActiveKey == nil || sub.PausedAt != nil {
		t.Fatalf("reactivation must restore the key and clear PausedAt")
	}

	next := time.Now().Add(30 * 24 * time.Hour)
	sub.NextBillingAt = &next
	sub.MarkCanceled(time.Now())
	if sub.ActiveKey != nil || sub.CanceledAt == nil || sub.NextBillingAt != nil {
		t.Fatalf("cancellation must release the key, stamp CanceledAt and clear NextBillingAt")
	}
}
