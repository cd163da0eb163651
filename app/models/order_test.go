package models

import "testing"

func TestOrderCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{from: OrderStatusPending, to: OrderStatusPaid, want: true},
		{from: OrderStatusPaid, to: OrderStatusShipped, want: true},
		{from: OrderStatusShipped, to: OrderStatusDelivered, want: true},
		{from: OrderStatusPending, to: OrderStatusShipped, want: false},
		{from: OrderStatusPending, to: OrderStatusDelivered, want: false},
		{from: OrderStatusPaid, to: OrderStatusPending, want: false},
		{from: OrderStatusShipped, to: OrderStatusPaid, want: false},
		{from: OrderStatusPending, to: OrderStatusCanceled, want: true},
		{from: OrderStatusPaid, to: OrderStatusCanceled, want: true},
		{from: OrderStatusShipped, to: OrderStatusCanceled, want: true},
		{from: OrderStatusDelivered, to: OrderStatusCanceled, want: false},
		{from: OrderStatusCanceled, to: OrderStatusPaid, want: false},
		{from: OrderStatusCanceled, to: OrderStatusCanceled, want: false},
		{from: OrderStatusDelivered, to: OrderStatusDelivered, want: false},
	}

	for _, tt := range tests {
		order := &Order{Status: tt.from}
		if got := order.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOrderIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		OrderStatusPending:   false,
		OrderStatusPaid:      false,
		OrderStatusShipped:   false,
		OrderStatusDelivered: true,
		OrderStatusCanceled:  true,
	} {
		order := &Order{Status: status}
		if got := order.IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}
