package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoDeliveryLocation = errors.New("delivery location is required")
	ErrNotAuthenticated   = errors.New("buyer is not authenticated")
	// ErrMixedSellers keeps the one-order-per-seller checkout honest
	// instead of silently attributing the order to the first seller.
	ErrMixedSellers = errors.New("cart holds crops from more than one seller")
)

type Store interface {
	Get(ctx context.Context, buyerID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, buyerID string) error
}

type CropGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Crop, error)
}

type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order) error
}

type Service struct {
	store       Store
	crops       CropGetter
	orders      OrderCreator
	deliveryFee int64
	logger      *slog.Logger
}

func NewService(store Store, crops CropGetter, orders OrderCreator, deliveryFee int64, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		crops:       crops,
		orders:      orders,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

func (s *Service) Get(ctx context.Context, buyerID string) (*domain.Cart, error) {
	return s.store.Get(ctx, buyerID)
}

// Add puts quantity units of a crop into the cart. The combined quantity is
// checked against the crop's availability; a violating add is rejected
// whole, never clamped.
func (s *Service) Add(ctx context.Context, buyerID, cropID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInsufficientQuantity)
	}

	crop, err := s.crops.GetByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if crop == nil {
		return nil, domain.ErrCropNotFound
	}

	cart, err := s.store.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	existing := 0
	idx, found := cart.Find(cropID)
	if found {
		existing = cart.Items[idx].Quantity
	}

	if existing+quantity > crop.QuantityAvailable {
		return nil, fmt.Errorf("%w: only %d %s of %s available",
			domain.ErrInsufficientQuantity, crop.QuantityAvailable, crop.Unit, crop.Name)
	}

	if found {
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			CropID:       crop.ID,
			CropName:     crop.Name,
			SellerID:     crop.SellerID,
			Quantity:     quantity,
			Unit:         crop.Unit,
			PricePerUnit: crop.PricePerUnit,
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity sets the absolute quantity of a cart line; zero removes
// the line. The same availability check as Add applies.
func (s *Service) UpdateQuantity(ctx context.Context, buyerID, cropID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrInsufficientQuantity)
	}

	cart, err := s.store.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	idx, found := cart.Find(cropID)
	if !found {
		return nil, domain.ErrCropNotFound
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		crop, err := s.crops.GetByID(ctx, cropID)
		if err != nil {
			return nil, err
		}
		if crop == nil {
			return nil, domain.ErrCropNotFound
		}
		if quantity > crop.QuantityAvailable {
			return nil, fmt.Errorf("%w: only %d %s of %s available",
				domain.ErrInsufficientQuantity, crop.QuantityAvailable, crop.Unit, crop.Name)
		}
		cart.Items[idx].Quantity = quantity
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Remove(ctx context.Context, buyerID, cropID string) (*domain.Cart, error) {
	return s.UpdateQuantity(ctx, buyerID, cropID, 0)
}

type CheckoutRequest struct {
	DeliveryAddress string
	DeliveryLat     float64
	DeliveryLng     float64
	Phone           string
	Notes           string
}

// Checkout validates, then hands the whole cart to the order store, which
// inserts order and items atomically. The cart is cleared only after the
// order committed.
func (s *Service) Checkout(ctx context.Context, buyerID string, req CheckoutRequest) (*domain.Order, error) {
	if buyerID == "" {
		return nil, ErrNotAuthenticated
	}
	if req.DeliveryAddress == "" {
		return nil, ErrNoDeliveryLocation
	}

	cart, err := s.store.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	sellerID := cart.Items[0].SellerID
	for _, item := range cart.Items[1:] {
		if item.SellerID != sellerID {
			return nil, ErrMixedSellers
		}
	}

	order := &domain.Order{
		BuyerID:         buyerID,
		SellerID:        sellerID,
		DeliveryFee:     s.deliveryFee,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryLat:     req.DeliveryLat,
		DeliveryLng:     req.DeliveryLng,
		Phone:           req.Phone,
		Notes:           req.Notes,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			CropID:       item.CropID,
			CropName:     item.CropName,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			PricePerUnit: item.PricePerUnit,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.store.Clear(ctx, buyerID); err != nil {
		// The order is already placed; a stale cart is the lesser problem.
		s.logger.Error("failed to clear cart after checkout", "error", err, "buyer_id", buyerID)
	}

	s.logger.Info("checkout complete", "order_id", order.ID, "buyer_id", buyerID, "total", order.TotalAmount)
	return order, nil
}
