package domain

import (
	"errors"
	"time"
)

var (
	ErrCropNotFound = errors.New("crop not found")
	// ErrInsufficientQuantity rejects a cart add, quantity update or
	// checkout that would exceed a crop's available quantity.
	ErrInsufficientQuantity = errors.New("insufficient crop quantity")
)

type Crop struct {
	ID                string    `json:"id"`
	SellerID          string    `json:"seller_id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Description       string    `json:"description,omitempty"`
	PricePerUnit      int64     `json:"price_per_unit"`
	Unit              string    `json:"unit"`
	QuantityAvailable int       `json:"quantity_available"`
	Location          string    `json:"location"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
