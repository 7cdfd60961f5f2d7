package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type capturingInserter struct {
	notifications []*domain.Notification
	err           error
}

func (c *capturingInserter) Insert(_ context.Context, n *domain.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.notifications = append(c.notifications, n)
	return nil
}

func statusEvent(to domain.OrderStatus) []byte {
	payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
		OrderID:   "order-1",
		BuyerID:   "buyer-1",
		SellerID:  "seller-1",
		OldStatus: domain.OrderStatusPending,
		NewStatus: to,
		Timestamp: time.Now().UTC(),
	})
	return payload
}

func TestStatusChangeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("stores a notification for buyer and seller", func(t *testing.T) {
		inserter := &capturingInserter{}
		handler := NewStatusChangeHandler(inserter, logger)

		if err := handler.Handle(context.Background(), statusEvent(domain.OrderStatusConfirmed)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(inserter.notifications) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(inserter.notifications))
		}

		buyer := inserter.notifications[0]
		if buyer.ProfileID != "buyer-1" {
			t.Errorf("expected buyer notification first, got profile %s", buyer.ProfileID)
		}
		if !strings.Contains(buyer.Body, "order-1") {
			t.Errorf("expected order id in body, got %q", buyer.Body)
		}
		if buyer.Kind != "order_status" {
			t.Errorf("unexpected kind %q", buyer.Kind)
		}

		seller := inserter.notifications[1]
		if seller.ProfileID != "seller-1" {
			t.Errorf("expected seller notification second, got profile %s", seller.ProfileID)
		}
	})

	t.Run("message varies by status", func(t *testing.T) {
		inserter := &capturingInserter{}
		handler := NewStatusChangeHandler(inserter, logger)

		if err := handler.Handle(context.Background(), statusEvent(domain.OrderStatusDelivered)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := inserter.notifications[0].Title; got != "Order delivered" {
			t.Errorf("unexpected buyer title %q", got)
		}
	})

	t.Run("insert failure is returned for redelivery", func(t *testing.T) {
		inserter := &capturingInserter{err: errors.New("db down")}
		handler := NewStatusChangeHandler(inserter, logger)

		if err := handler.Handle(context.Background(), statusEvent(domain.OrderStatusConfirmed)); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		handler := NewStatusChangeHandler(&capturingInserter{}, logger)

		if err := handler.Handle(context.Background(), []byte("not json")); err == nil {
			t.Fatal("expected error")
		}
	})
}
