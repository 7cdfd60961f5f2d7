package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/agroconnect-tz/marketplace/internal/delivery"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type OrderRepository struct {
	db        *sql.DB
	estimator delivery.EstimateProvider
}

func NewOrderRepository(db *sql.DB, estimator delivery.EstimateProvider) *OrderRepository {
	return &OrderRepository{db: db, estimator: estimator}
}

// Create inserts the order, its items and the stock decrement in one
// transaction. Either everything lands or nothing does; an order row with
// zero items cannot result.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	order.Status = domain.OrderStatusPending
	order.PaymentStatus = domain.PaymentStatusUnpaid
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt

	order.TotalAmount = order.DeliveryFee
	for i := range order.Items {
		order.Items[i].LineTotal = int64(order.Items[i].Quantity) * order.Items[i].PricePerUnit
		order.TotalAmount += order.Items[i].LineTotal
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, seller_id, status, total_amount, delivery_fee,
			delivery_address, delivery_lat, delivery_lng, phone, notes, payment_status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, order.ID, order.BuyerID, order.SellerID, order.Status, order.TotalAmount,
		order.DeliveryFee, order.DeliveryAddress, order.DeliveryLat, order.DeliveryLng,
		order.Phone, order.Notes, order.PaymentStatus, order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New().String()

		result, err := tx.ExecContext(ctx, `
			UPDATE crops
			SET quantity_available = quantity_available - $2, updated_at = NOW()
			WHERE id = $1 AND quantity_available >= $2
		`, item.CropID, item.Quantity)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: crop %s", domain.ErrInsufficientQuantity, item.CropID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, crop_id, crop_name, quantity, unit, price_per_unit, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, order.ID, item.CropID, item.CropName, item.Quantity, item.Unit,
			item.PricePerUnit, item.LineTotal)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `id, buyer_id, seller_id, status, total_amount, delivery_fee,
	delivery_address, delivery_lat, delivery_lng, phone, notes, payment_status,
	estimated_delivery, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, order *domain.Order) error {
	return row.Scan(&order.ID, &order.BuyerID, &order.SellerID, &order.Status,
		&order.TotalAmount, &order.DeliveryFee, &order.DeliveryAddress,
		&order.DeliveryLat, &order.DeliveryLng, &order.Phone, &order.Notes,
		&order.PaymentStatus, &order.EstimatedDelivery, &order.CreatedAt, &order.UpdatedAt)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err := scanOrder(row, order); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, crop_id, crop_name, quantity, unit, price_per_unit, line_total
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.CropID, &item.CropName, &item.Quantity,
			&item.Unit, &item.PricePerUnit, &item.LineTotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return r.listBy(ctx, "buyer_id", buyerID)
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	return r.listBy(ctx, "seller_id", sellerID)
}

func (r *OrderRepository) listBy(ctx context.Context, column, value string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+column+` = $1
		ORDER BY created_at DESC
	`, value)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, crop_id, crop_name, quantity, unit, price_per_unit, line_total
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ID, &item.CropID, &item.CropName,
			&item.Quantity, &item.Unit, &item.PricePerUnit, &item.LineTotal); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// TransitionStatus validates the transition against the lifecycle table and
// applies it with a compare-and-swap on the previous status. Tracking
// creation (on confirmed) and history appends (on in_transit, delivered,
// cancelled) happen in the same transaction, so an order can never end up
// confirmed without a tracking record.
//
// It returns the updated order and the status it transitioned from.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, target domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		current domain.OrderStatus
		address string
		lat     float64
		lng     float64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, delivery_address, delivery_lat, delivery_lng
		FROM orders
		WHERE id = $1
	`, id).Scan(&current, &address, &lat, &lng)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", domain.ErrOrderNotFound
		}
		return nil, "", err
	}

	if err := domain.ValidateTransition(current, target); err != nil {
		return nil, "", err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, target, id, current)
	if err != nil {
		return nil, "", err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, "", err
	}
	if affected == 0 {
		return nil, "", domain.ErrStatusConflict
	}

	switch target {
	case domain.OrderStatusConfirmed:
		if err := r.createTracking(ctx, tx, id, lat, lng); err != nil {
			return nil, "", err
		}

	case domain.OrderStatusInTransit:
		if err := r.appendTracking(ctx, tx, id, target, "Your order is on the way", "En route"); err != nil {
			return nil, "", err
		}

	case domain.OrderStatusDelivered:
		if err := r.appendTracking(ctx, tx, id, target, "Order delivered", address); err != nil {
			return nil, "", err
		}

	case domain.OrderStatusCancelled:
		// Tracking exists only if the order was confirmed first.
		if err := r.cancelTracking(ctx, tx, id); err != nil {
			return nil, "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return order, current, nil
}

func (r *OrderRepository) createTracking(ctx context.Context, tx *sql.Tx, orderID string, lat, lng float64) error {
	est := r.estimator.Estimate(&domain.Order{ID: orderID, DeliveryLat: lat, DeliveryLng: lng})

	_, err := tx.ExecContext(ctx, `
		INSERT INTO delivery_tracking (id, order_id, status, current_location, estimated_arrival, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, uuid.New().String(), orderID, domain.OrderStatusConfirmed, "Preparing at seller", est.EstimatedArrival)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET estimated_delivery = $1 WHERE id = $2
	`, est.EstimatedArrival, orderID)
	return err
}

func (r *OrderRepository) appendTracking(ctx context.Context, tx *sql.Tx, orderID string, status domain.OrderStatus, message, location string) error {
	var trackingID string
	err := tx.QueryRowContext(ctx, `
		UPDATE delivery_tracking
		SET status = $1, current_location = $2, updated_at = NOW()
		WHERE order_id = $3
		RETURNING id
	`, status, location, orderID).Scan(&trackingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("order %s has no tracking record", orderID)
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracking_events (id, tracking_id, status, message, location, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New().String(), trackingID, status, message, location)
	return err
}

func (r *OrderRepository) cancelTracking(ctx context.Context, tx *sql.Tx, orderID string) error {
	var trackingID, location string
	err := tx.QueryRowContext(ctx, `
		UPDATE delivery_tracking
		SET status = $1, updated_at = NOW()
		WHERE order_id = $2
		RETURNING id, current_location
	`, domain.OrderStatusCancelled, orderID).Scan(&trackingID, &location)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracking_events (id, tracking_id, status, message, location, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New().String(), trackingID, domain.OrderStatusCancelled, "Order cancelled", location)
	return err
}

func (r *OrderRepository) GetTracking(ctx context.Context, orderID string) (*domain.DeliveryTracking, error) {
	tracking := &domain.DeliveryTracking{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, current_location, driver_name, driver_phone,
			vehicle_info, estimated_arrival, created_at, updated_at
		FROM delivery_tracking
		WHERE order_id = $1
	`, orderID).Scan(&tracking.ID, &tracking.OrderID, &tracking.Status,
		&tracking.CurrentLocation, &tracking.DriverName, &tracking.DriverPhone,
		&tracking.VehicleInfo, &tracking.EstimatedArrival, &tracking.CreatedAt,
		&tracking.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tracking_id, status, message, location, created_at
		FROM tracking_events
		WHERE tracking_id = $1
		ORDER BY created_at
	`, tracking.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var event domain.TrackingEvent
		if err := rows.Scan(&event.ID, &event.TrackingID, &event.Status,
			&event.Message, &event.Location, &event.CreatedAt); err != nil {
			return nil, err
		}
		tracking.History = append(tracking.History, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tracking, nil
}
