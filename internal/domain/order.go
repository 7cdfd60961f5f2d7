package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderNotFound     = errors.New("order not found")
	// ErrStatusConflict means a concurrent writer changed the order status
	// between read and write; the caller should refetch and retry.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// allowedNext is the forward lifecycle table. delivered and cancelled are
// terminal and have no entries.
var allowedNext = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit: {OrderStatusDelivered, OrderStatusCancelled},
}

func AllowedNext(status OrderStatus) []OrderStatus {
	return allowedNext[status]
}

func IsTerminalStatus(status OrderStatus) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInTransit, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ValidateTransition rejects anything not in the transition table. A
// same-status write is rejected too, there are no silent no-ops.
func ValidateTransition(from, to OrderStatus) error {
	for _, next := range allowedNext[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

type OrderItem struct {
	ID           string `json:"id"`
	CropID       string `json:"crop_id"`
	CropName     string `json:"crop_name"`
	Quantity     int    `json:"quantity"`
	Unit         string `json:"unit"`
	PricePerUnit int64  `json:"price_per_unit"`
	LineTotal    int64  `json:"line_total"`
}

type Order struct {
	ID                string        `json:"id"`
	BuyerID           string        `json:"buyer_id"`
	SellerID          string        `json:"seller_id"`
	Items             []OrderItem   `json:"items"`
	Status            OrderStatus   `json:"status"`
	TotalAmount       int64         `json:"total_amount"`
	DeliveryFee       int64         `json:"delivery_fee"`
	DeliveryAddress   string        `json:"delivery_address"`
	DeliveryLat       float64       `json:"delivery_lat"`
	DeliveryLng       float64       `json:"delivery_lng"`
	Phone             string        `json:"phone"`
	Notes             string        `json:"notes,omitempty"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
