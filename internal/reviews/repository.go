package reviews

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

var (
	ErrOrderNotDelivered = errors.New("order has not been delivered")
	ErrAlreadyReviewed   = errors.New("order already reviewed")
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores one review per delivered order. The order lookup is scoped
// to the buyer, so reviewing someone else's order looks identical to
// reviewing a missing one.
func (r *ReviewRepository) Create(ctx context.Context, buyerID, orderID string, rating int, comment string) (*domain.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		sellerID string
		status   domain.OrderStatus
	)
	err = tx.QueryRowContext(ctx, `
		SELECT seller_id, status FROM orders WHERE id = $1 AND buyer_id = $2
	`, orderID, buyerID).Scan(&sellerID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if status != domain.OrderStatusDelivered {
		return nil, ErrOrderNotDelivered
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE order_id = $1)
	`, orderID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	review := &domain.Review{
		ID:       uuid.New().String(),
		OrderID:  orderID,
		BuyerID:  buyerID,
		SellerID: sellerID,
		Rating:   rating,
		Comment:  comment,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reviews (id, order_id, buyer_id, seller_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, review.ID, review.OrderID, review.BuyerID, review.SellerID, review.Rating, review.Comment).Scan(&review.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Review, float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, buyer_id, seller_id, rating, comment, created_at
		FROM reviews
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	sum := 0
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.OrderID, &review.BuyerID, &review.SellerID,
			&review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, 0, err
		}
		sum += review.Rating
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	average := 0.0
	if len(reviews) > 0 {
		average = float64(sum) / float64(len(reviews))
	}
	return reviews, average, nil
}
