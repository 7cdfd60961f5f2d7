package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type NotificationInserter interface {
	Insert(ctx context.Context, n *domain.Notification) error
}

// StatusChangeHandler consumes order status change events and fans them out
// into one notification row per interested party.
type StatusChangeHandler struct {
	notifications NotificationInserter
	logger        *slog.Logger
}

func NewStatusChangeHandler(notifications NotificationInserter, logger *slog.Logger) *StatusChangeHandler {
	return &StatusChangeHandler{notifications: notifications, logger: logger}
}

func (h *StatusChangeHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order status changed event: %w", err)
	}

	h.logger.Info("processing order status change",
		"order_id", event.OrderID, "from", event.OldStatus, "to", event.NewStatus)

	buyerTitle, buyerBody := buyerMessage(event)
	if err := h.notifications.Insert(ctx, &domain.Notification{
		ProfileID: event.BuyerID,
		Title:     buyerTitle,
		Body:      buyerBody,
		Kind:      "order_status",
	}); err != nil {
		return fmt.Errorf("insert buyer notification: %w", err)
	}

	sellerTitle, sellerBody := sellerMessage(event)
	if err := h.notifications.Insert(ctx, &domain.Notification{
		ProfileID: event.SellerID,
		Title:     sellerTitle,
		Body:      sellerBody,
		Kind:      "order_status",
	}); err != nil {
		return fmt.Errorf("insert seller notification: %w", err)
	}

	h.logger.Info("notifications stored", "order_id", event.OrderID, "status", event.NewStatus)
	return nil
}

func buyerMessage(event domain.OrderStatusChangedEvent) (string, string) {
	switch event.NewStatus {
	case domain.OrderStatusConfirmed:
		return "Order confirmed", fmt.Sprintf("Your order %s has been confirmed by the seller and is being prepared.", event.OrderID)
	case domain.OrderStatusInTransit:
		return "Order on the way", fmt.Sprintf("Your order %s is out for delivery.", event.OrderID)
	case domain.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Your order %s has been delivered. Enjoy!", event.OrderID)
	case domain.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Your order %s has been cancelled.", event.OrderID)
	default:
		return "Order updated", fmt.Sprintf("Your order %s is now %s.", event.OrderID, event.NewStatus)
	}
}

func sellerMessage(event domain.OrderStatusChangedEvent) (string, string) {
	switch event.NewStatus {
	case domain.OrderStatusConfirmed:
		return "Order confirmed", fmt.Sprintf("You confirmed order %s. Prepare it for delivery.", event.OrderID)
	case domain.OrderStatusInTransit:
		return "Order in transit", fmt.Sprintf("Order %s is out for delivery.", event.OrderID)
	case domain.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Order %s was delivered to the buyer.", event.OrderID)
	case domain.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Order %s has been cancelled.", event.OrderID)
	default:
		return "Order updated", fmt.Sprintf("Order %s is now %s.", event.OrderID, event.NewStatus)
	}
}
