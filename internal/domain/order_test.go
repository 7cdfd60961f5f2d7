package domain

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	allowed := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusInTransit},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusInTransit, OrderStatusDelivered},
		{OrderStatusInTransit, OrderStatusCancelled},
	}

	for _, tc := range allowed {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Errorf("expected %s -> %s to be allowed, got %v", tc.from, tc.to, err)
		}
	}

	rejected := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusInTransit},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusConfirmed, OrderStatusDelivered},
		{OrderStatusConfirmed, OrderStatusPending},
		{OrderStatusInTransit, OrderStatusConfirmed},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusConfirmed},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusPending},
		{OrderStatusConfirmed, OrderStatusConfirmed},
	}

	for _, tc := range rejected {
		err := ValidateTransition(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected %s -> %s to be rejected with ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !IsTerminalStatus(status) {
			t.Errorf("expected %s to be terminal", status)
		}
		if next := AllowedNext(status); len(next) != 0 {
			t.Errorf("expected no successors for %s, got %v", status, next)
		}
	}

	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusInTransit} {
		if IsTerminalStatus(status) {
			t.Errorf("expected %s to be non-terminal", status)
		}
		if next := AllowedNext(status); len(next) == 0 {
			t.Errorf("expected successors for %s", status)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusInTransit, OrderStatusDelivered, OrderStatusCancelled} {
		if !IsValidStatus(status) {
			t.Errorf("expected %s to be valid", status)
		}
	}

	for _, status := range []OrderStatus{"", "shipped", "PENDING", "done"} {
		if IsValidStatus(status) {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}
