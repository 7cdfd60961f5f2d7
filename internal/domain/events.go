package domain

import "time"

// OrderStatusChangedEvent is published to Kafka after every committed
// status transition. The notifier turns it into notification rows.
type OrderStatusChangedEvent struct {
	OrderID   string      `json:"order_id"`
	BuyerID   string      `json:"buyer_id"`
	SellerID  string      `json:"seller_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Timestamp time.Time   `json:"timestamp"`
}
