package domain

import "time"

// DeliveryTracking is created once, when its order is confirmed. Its status
// mirrors the order status from then on; both are written by the same
// transition, so the tracking status never regresses behind the order.
type DeliveryTracking struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	Status           OrderStatus     `json:"status"`
	CurrentLocation  string          `json:"current_location"`
	DriverName       *string         `json:"driver_name,omitempty"`
	DriverPhone      *string         `json:"driver_phone,omitempty"`
	VehicleInfo      *string         `json:"vehicle_info,omitempty"`
	EstimatedArrival time.Time       `json:"estimated_arrival"`
	History          []TrackingEvent `json:"history"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TrackingEvent is one append-only status history row.
type TrackingEvent struct {
	ID         string      `json:"id"`
	TrackingID string      `json:"tracking_id"`
	Status     OrderStatus `json:"status"`
	Message    string      `json:"message"`
	Location   string      `json:"location"`
	CreatedAt  time.Time   `json:"created_at"`
}
