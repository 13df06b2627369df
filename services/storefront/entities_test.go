package main

import (
	"testing"
	"time"
)

func TestNewOrder(t *testing.T) {
	// Arrange
	id := "test-order-123"
	userID := "user-456"
	var total int64 = 20000

	// Act
	order := NewOrder(id, userID, total, "Jl. Example 1", "leave at door")

	// Assert
	if order.ID != id {
		t.Errorf("Expected ID %s, got %s", id, order.ID)
	}
	if order.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, order.UserID)
	}
	if order.TotalAmount != total {
		t.Errorf("Expected TotalAmount %d, got %d", total, order.TotalAmount)
	}
	if order.Status != OrderStatusPending {
		t.Errorf("Expected Status %s, got %s", OrderStatusPending, order.Status)
	}
	if order.ShippingAddress != "Jl. Example 1" {
		t.Errorf("Expected shipping address to be kept, got %s", order.ShippingAddress)
	}
	if order.CustomerNotes != "leave at door" {
		t.Errorf("Expected customer notes to be kept, got %s", order.CustomerNotes)
	}
	if order.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if order.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}

	now := time.Now()
	if order.CreatedAt.After(now) || order.CreatedAt.Before(now.Add(-time.Second)) {
		t.Error("CreatedAt is not within expected time range")
	}
}

func TestNewOrderDefaultShippingAddress(t *testing.T) {
	order := NewOrder("o1", "u1", 1000, "", "")
	if order.ShippingAddress != DefaultShippingAddress {
		t.Errorf("Expected sentinel shipping address %q, got %q", DefaultShippingAddress, order.ShippingAddress)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusFailed, OrderStatusPending, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestKnownStatus(t *testing.T) {
	for _, s := range []string{
		OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed,
	} {
		if !KnownStatus(s) {
			t.Errorf("Expected %q to be a known status", s)
		}
	}
	if KnownStatus("refunded") {
		t.Error("Expected 'refunded' to be unknown")
	}
}

func TestProductFirstImage(t *testing.T) {
	p := &Product{ID: "P1", ImagePreviews: []string{"a.jpg", "b.jpg"}}
	img := p.FirstImage()
	if img == nil || *img != "a.jpg" {
		t.Errorf("Expected first image a.jpg, got %v", img)
	}

	empty := &Product{ID: "P2"}
	if empty.FirstImage() != nil {
		t.Error("Expected nil image for product without previews")
	}
}
