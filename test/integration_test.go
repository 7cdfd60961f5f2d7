//go:build integration

package test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agroconnect-tz/marketplace/internal/cart"
	"github.com/agroconnect-tz/marketplace/internal/catalog"
	"github.com/agroconnect-tz/marketplace/internal/delivery"
	"github.com/agroconnect-tz/marketplace/internal/domain"
	"github.com/agroconnect-tz/marketplace/internal/orders"
)

func createProfile(t *testing.T, db *sql.DB, userType string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO profiles (id, full_name, email, phone, password_hash, user_type, location, created_at)
		VALUES ($1, $2, $3, '+255700000000', 'x', $4, 'Dar es Salaam', NOW())
	`, id, "Test "+userType, id+"@example.com", userType)
	if err != nil {
		t.Fatalf("failed to insert profile: %v", err)
	}
	return id
}

func createCrop(t *testing.T, db *sql.DB, sellerID string, quantity int) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO crops (id, seller_id, name, category, description, price_per_unit, unit, quantity_available, location, created_at, updated_at)
		VALUES ($1, $2, 'Maize', 'grains', '', 1500, 'kg', $3, 'Arusha', NOW(), NOW())
	`, id, sellerID, quantity)
	if err != nil {
		t.Fatalf("failed to insert crop: %v", err)
	}
	return id
}

func createOrder(t *testing.T, ctx context.Context, repo *orders.OrderRepository, buyerID, sellerID, cropID string, quantity int) *domain.Order {
	t.Helper()

	order := &domain.Order{
		BuyerID:         buyerID,
		SellerID:        sellerID,
		DeliveryFee:     2000,
		DeliveryAddress: "12 Uhuru Street, Dar es Salaam",
		DeliveryLat:     -6.7924,
		DeliveryLng:     39.2083,
		Phone:           "+255700000001",
		Items: []domain.OrderItem{
			{CropID: cropID, CropName: "Maize", Quantity: quantity, Unit: "kg", PricePerUnit: 1500},
		},
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	return order
}

func TestOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db, delivery.NewRandomEstimator())

	buyerID := createProfile(t, db, "buyer")
	sellerID := createProfile(t, db, "seller")
	cropID := createCrop(t, db, sellerID, 100)

	order := createOrder(t, ctx, repo, buyerID, sellerID, cropID, 10)

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if order.TotalAmount != 10*1500+2000 {
		t.Fatalf("expected total %d, got %d", 10*1500+2000, order.TotalAmount)
	}

	// Stock was decremented at checkout.
	var remaining int
	if err := db.QueryRow(`SELECT quantity_available FROM crops WHERE id = $1`, cropID).Scan(&remaining); err != nil {
		t.Fatalf("failed to read crop quantity: %v", err)
	}
	if remaining != 90 {
		t.Fatalf("expected 90 remaining, got %d", remaining)
	}

	// pending -> confirmed creates the tracking record with an estimate.
	before := time.Now().UTC()
	updated, previous, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("failed to confirm order: %v", err)
	}
	if previous != domain.OrderStatusPending {
		t.Fatalf("expected previous status pending, got %s", previous)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected status confirmed, got %s", updated.Status)
	}

	tracking, err := repo.GetTracking(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get tracking: %v", err)
	}
	if tracking == nil {
		t.Fatal("expected tracking record after confirmation")
	}
	if tracking.CurrentLocation != "Preparing at seller" {
		t.Fatalf("unexpected current location: %s", tracking.CurrentLocation)
	}

	minArrival := before.Add(40 * time.Minute)
	maxArrival := time.Now().UTC().Add(60 * time.Minute)
	if tracking.EstimatedArrival.Before(minArrival) || tracking.EstimatedArrival.After(maxArrival) {
		t.Fatalf("estimated arrival %v outside [%v, %v]", tracking.EstimatedArrival, minArrival, maxArrival)
	}
	if len(tracking.History) != 0 {
		t.Fatalf("expected no tracking events after confirmation, got %d", len(tracking.History))
	}

	// confirmed -> in_transit appends the en-route event.
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusInTransit); err != nil {
		t.Fatalf("failed to move order in transit: %v", err)
	}

	tracking, err = repo.GetTracking(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get tracking: %v", err)
	}
	if len(tracking.History) != 1 {
		t.Fatalf("expected 1 tracking event, got %d", len(tracking.History))
	}
	if tracking.History[0].Location != "En route" {
		t.Fatalf("expected location 'En route', got %q", tracking.History[0].Location)
	}

	// in_transit -> delivered records the delivery address.
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusDelivered); err != nil {
		t.Fatalf("failed to deliver order: %v", err)
	}

	tracking, err = repo.GetTracking(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get tracking: %v", err)
	}
	if len(tracking.History) != 2 {
		t.Fatalf("expected 2 tracking events, got %d", len(tracking.History))
	}
	last := tracking.History[len(tracking.History)-1]
	if last.Location != "12 Uhuru Street, Dar es Salaam" {
		t.Fatalf("expected delivery address as location, got %q", last.Location)
	}

	// delivered is terminal.
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusConfirmed); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelBeforeTracking(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db, delivery.NewRandomEstimator())

	buyerID := createProfile(t, db, "buyer")
	sellerID := createProfile(t, db, "seller")
	cropID := createCrop(t, db, sellerID, 50)

	order := createOrder(t, ctx, repo, buyerID, sellerID, cropID, 5)

	// Cancelling a pending order has no tracking record to update.
	updated, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("failed to cancel order: %v", err)
	}
	if updated.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected status cancelled, got %s", updated.Status)
	}

	tracking, err := repo.GetTracking(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get tracking: %v", err)
	}
	if tracking != nil {
		t.Fatal("expected no tracking record for a never-confirmed order")
	}

	// Cancelled is absorbing.
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusConfirmed); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

type memoryCartStore struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{carts: map[string]*domain.Cart{}}
}

func (s *memoryCartStore) Get(_ context.Context, buyerID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[buyerID]; ok {
		return c, nil
	}
	return &domain.Cart{BuyerID: buyerID, Items: []domain.CartItem{}}, nil
}

func (s *memoryCartStore) Save(_ context.Context, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.BuyerID] = c
	return nil
}

func (s *memoryCartStore) Clear(_ context.Context, buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, buyerID)
	return nil
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	orderRepo := orders.NewOrderRepository(db, delivery.NewRandomEstimator())
	cropRepo := catalog.NewCropRepository(db)
	store := newMemoryCartStore()
	service := cart.NewService(store, cropRepo, orderRepo, 2000, logger)

	buyerID := createProfile(t, db, "buyer")
	sellerID := createProfile(t, db, "seller")
	cropID := createCrop(t, db, sellerID, 8)

	if _, err := service.Add(ctx, buyerID, cropID, 5); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	// Adding past availability is rejected whole.
	if _, err := service.Add(ctx, buyerID, cropID, 4); !errors.Is(err, domain.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	order, err := service.Checkout(ctx, buyerID, cart.CheckoutRequest{
		DeliveryAddress: "Mbezi Beach, Dar es Salaam",
		DeliveryLat:     -6.72,
		DeliveryLng:     39.21,
		Phone:           "+255700000002",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.TotalAmount != 5*1500+2000 {
		t.Fatalf("expected total %d, got %d", 5*1500+2000, order.TotalAmount)
	}

	var remaining int
	if err := db.QueryRow(`SELECT quantity_available FROM crops WHERE id = $1`, cropID).Scan(&remaining); err != nil {
		t.Fatalf("failed to read crop quantity: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("expected 3 remaining after checkout, got %d", remaining)
	}

	emptied, err := service.Get(ctx, buyerID)
	if err != nil {
		t.Fatalf("failed to get cart: %v", err)
	}
	if len(emptied.Items) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", len(emptied.Items))
	}

	// A second checkout of the same quantity must fail on stock.
	if _, err := service.Add(ctx, buyerID, cropID, 3); err != nil {
		t.Fatalf("failed to refill cart: %v", err)
	}
	if _, err := service.UpdateQuantity(ctx, buyerID, cropID, 4); !errors.Is(err, domain.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity on update, got %v", err)
	}
}

func TestStatusConflict(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db, delivery.NewRandomEstimator())

	buyerID := createProfile(t, db, "buyer")
	sellerID := createProfile(t, db, "seller")
	cropID := createCrop(t, db, sellerID, 20)

	order := createOrder(t, ctx, repo, buyerID, sellerID, cropID, 2)

	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusConfirmed); err != nil {
		t.Fatalf("failed to confirm order: %v", err)
	}

	// A transition validated against a stale snapshot loses the race.
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("failed to cancel confirmed order: %v", err)
	}
	if _, _, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusInTransit); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after cancellation, got %v", err)
	}
}
