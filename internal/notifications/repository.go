package notifications

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	n.ID = uuid.New().String()
	return r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, profile_id, title, body, kind, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING created_at
	`, n.ID, n.ProfileID, n.Title, n.Body, n.Kind).Scan(&n.CreatedAt)
}

func (r *NotificationRepository) ListByProfile(ctx context.Context, profileID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, profile_id, title, body, kind, read, created_at
		FROM notifications
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	notifications := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Title, &n.Body, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead is scoped to the owning profile so one user cannot touch
// another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, profileID, notificationID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND profile_id = $2
	`, notificationID, profileID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
