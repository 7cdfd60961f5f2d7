package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

var (
	ErrBusinessNotFound   = errors.New("business not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionInvalid     = errors.New("admin session invalid or expired")
)

type AdminRepository struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewAdminRepository(db *sql.DB, sessionTTL time.Duration) *AdminRepository {
	return &AdminRepository{db: db, sessionTTL: sessionTTL}
}

func (r *AdminRepository) Login(ctx context.Context, email, password string) (*domain.AdminSession, error) {
	var adminID, hash string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admin_users WHERE email = $1
	`, email).Scan(&adminID, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := &domain.AdminSession{
		Token:     uuid.New().String(),
		AdminID:   adminID,
		ExpiresAt: time.Now().UTC().Add(r.sessionTTL),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (token, admin_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
	`, session.Token, session.AdminID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *AdminRepository) ValidateSession(ctx context.Context, token string) (*domain.AdminSession, error) {
	session := &domain.AdminSession{Token: token}

	err := r.db.QueryRowContext(ctx, `
		SELECT admin_id, expires_at FROM admin_sessions WHERE token = $1
	`, token).Scan(&session.AdminID, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token)
		return nil, ErrSessionInvalid
	}

	return session, nil
}

type DashboardStats struct {
	TotalBuyers          int            `json:"total_buyers"`
	TotalSellers         int            `json:"total_sellers"`
	PendingVerifications int            `json:"pending_verifications"`
	TotalOrders          int            `json:"total_orders"`
	OrdersByStatus       map[string]int `json:"orders_by_status"`
	DeliveredRevenue     int64          `json:"delivered_revenue"`
}

func (r *AdminRepository) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{OrdersByStatus: map[string]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE user_type = 'buyer'),
			COUNT(*) FILTER (WHERE user_type = 'seller')
		FROM profiles
	`).Scan(&stats.TotalBuyers, &stats.TotalSellers)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seller_profiles WHERE verification_status = 'pending'
	`).Scan(&stats.PendingVerifications)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount) FILTER (WHERE status = 'delivered'), 0)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			status  string
			count   int
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, err
		}
		stats.OrdersByStatus[status] = count
		stats.TotalOrders += count
		stats.DeliveredRevenue += revenue
	}

	return stats, rows.Err()
}

type BusinessPage struct {
	Businesses []domain.SellerProfile `json:"businesses"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"per_page"`
}

func (r *AdminRepository) ListBusinesses(ctx context.Context, page, perPage int, status domain.VerificationStatus) (*BusinessPage, error) {
	result := &BusinessPage{Businesses: []domain.SellerProfile{}, Page: page, PerPage: perPage}

	countQuery := `SELECT COUNT(*) FROM seller_profiles`
	listQuery := `
		SELECT id, profile_id, business_name, business_description, verification_status,
			COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.seller_id = seller_profiles.profile_id), 0),
			created_at, updated_at
		FROM seller_profiles`
	args := []any{}
	if status != "" {
		countQuery += ` WHERE verification_status = $1`
		listQuery += ` WHERE verification_status = $1`
		args = append(args, status)
	}
	listQuery += ` ORDER BY created_at DESC LIMIT ` + limitArg(len(args)+1) + ` OFFSET ` + limitArg(len(args)+2)

	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return nil, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sp domain.SellerProfile
		if err := rows.Scan(&sp.ID, &sp.ProfileID, &sp.BusinessName, &sp.BusinessDescription,
			&sp.VerificationStatus, &sp.Rating, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		result.Businesses = append(result.Businesses, sp)
	}

	return result, rows.Err()
}

// UpdateBusinessStatus writes the new verification status and the audit
// log row in one transaction.
func (r *AdminRepository) UpdateBusinessStatus(ctx context.Context, adminID, businessID string, status domain.VerificationStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var previous domain.VerificationStatus
	err = tx.QueryRowContext(ctx, `
		SELECT verification_status FROM seller_profiles WHERE id = $1 FOR UPDATE
	`, businessID).Scan(&previous)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBusinessNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE seller_profiles
		SET verification_status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, businessID)
	if err != nil {
		return err
	}

	detail, err := json.Marshal(map[string]string{
		"business_id": businessID,
		"from":        string(previous),
		"to":          string(status),
	})
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, admin_id, action, detail, created_at)
		VALUES ($1, $2, 'updateBusinessStatus', $3, NOW())
	`, uuid.New().String(), adminID, detail)
	if err != nil {
		return err
	}

	return tx.Commit()
}

type BusinessDetails struct {
	Business domain.SellerProfile `json:"business"`
	Owner    domain.Profile       `json:"owner"`
	Crops    int                  `json:"crops"`
	Orders   int                  `json:"orders"`
}

func (r *AdminRepository) GetBusinessDetails(ctx context.Context, businessID string) (*BusinessDetails, error) {
	details := &BusinessDetails{}

	err := r.db.QueryRowContext(ctx, `
		SELECT sp.id, sp.profile_id, sp.business_name, sp.business_description,
			sp.verification_status,
			COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.seller_id = sp.profile_id), 0),
			sp.created_at, sp.updated_at,
			p.id, p.full_name, p.email, p.phone, p.user_type, p.location, p.created_at
		FROM seller_profiles sp
		JOIN profiles p ON p.id = sp.profile_id
		WHERE sp.id = $1
	`, businessID).Scan(
		&details.Business.ID, &details.Business.ProfileID, &details.Business.BusinessName,
		&details.Business.BusinessDescription, &details.Business.VerificationStatus,
		&details.Business.Rating, &details.Business.CreatedAt, &details.Business.UpdatedAt,
		&details.Owner.ID, &details.Owner.FullName, &details.Owner.Email, &details.Owner.Phone,
		&details.Owner.UserType, &details.Owner.Location, &details.Owner.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM crops WHERE seller_id = $1),
			(SELECT COUNT(*) FROM orders WHERE seller_id = $1)
	`, details.Business.ProfileID).Scan(&details.Crops, &details.Orders)
	if err != nil {
		return nil, err
	}

	return details, nil
}

type UserPage struct {
	Users   []domain.Profile `json:"users"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

func (r *AdminRepository) ListUsers(ctx context.Context, page, perPage int, userType domain.UserType) (*UserPage, error) {
	result := &UserPage{Users: []domain.Profile{}, Page: page, PerPage: perPage}

	countQuery := `SELECT COUNT(*) FROM profiles`
	listQuery := `SELECT id, full_name, email, phone, user_type, location, created_at FROM profiles`
	args := []any{}
	if userType != "" {
		countQuery += ` WHERE user_type = $1`
		listQuery += ` WHERE user_type = $1`
		args = append(args, userType)
	}
	listQuery += ` ORDER BY created_at DESC LIMIT ` + limitArg(len(args)+1) + ` OFFSET ` + limitArg(len(args)+2)

	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return nil, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.UserType,
			&p.Location, &p.CreatedAt); err != nil {
			return nil, err
		}
		result.Users = append(result.Users, p)
	}

	return result, rows.Err()
}

type OrderPage struct {
	Orders  []domain.Order `json:"orders"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

func (r *AdminRepository) ListOrders(ctx context.Context, page, perPage int, status domain.OrderStatus) (*OrderPage, error) {
	result := &OrderPage{Orders: []domain.Order{}, Page: page, PerPage: perPage}

	countQuery := `SELECT COUNT(*) FROM orders`
	listQuery := `
		SELECT id, buyer_id, seller_id, status, total_amount, delivery_fee,
			delivery_address, delivery_lat, delivery_lng, phone, notes, payment_status,
			estimated_delivery, created_at, updated_at
		FROM orders`
	args := []any{}
	if status != "" {
		countQuery += ` WHERE status = $1`
		listQuery += ` WHERE status = $1`
		args = append(args, status)
	}
	listQuery += ` ORDER BY created_at DESC LIMIT ` + limitArg(len(args)+1) + ` OFFSET ` + limitArg(len(args)+2)

	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return nil, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.Status, &o.TotalAmount,
			&o.DeliveryFee, &o.DeliveryAddress, &o.DeliveryLat, &o.DeliveryLng, &o.Phone,
			&o.Notes, &o.PaymentStatus, &o.EstimatedDelivery, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result.Orders = append(result.Orders, o)
	}

	return result, rows.Err()
}

func (r *AdminRepository) GetSystemSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	settings := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

func (r *AdminRepository) UpdateSystemSettings(ctx context.Context, adminID string, settings map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range settings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO system_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, key, value)
		if err != nil {
			return err
		}
	}

	detail, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, admin_id, action, detail, created_at)
		VALUES ($1, $2, 'updateSystemSettings', $3, NOW())
	`, uuid.New().String(), adminID, detail)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func limitArg(n int) string {
	return fmt.Sprintf("$%d", n)
}
