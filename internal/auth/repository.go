package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionNotFound    = errors.New("session not found")
)

type AuthRepository struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewAuthRepository(db *sql.DB, sessionTTL time.Duration) *AuthRepository {
	return &AuthRepository{db: db, sessionTTL: sessionTTL}
}

type Registration struct {
	FullName            string
	Email               string
	Phone               string
	Password            string
	UserType            domain.UserType
	Location            string
	BusinessName        string
	BusinessDescription string
}

// Register creates the profile and, for sellers, the seller profile with a
// pending verification status, in one transaction.
func (r *AuthRepository) Register(ctx context.Context, reg Registration) (*domain.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE email = $1)`, reg.Email,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	profile := &domain.Profile{
		ID:        uuid.New().String(),
		FullName:  reg.FullName,
		Email:     reg.Email,
		Phone:     reg.Phone,
		UserType:  reg.UserType,
		Location:  reg.Location,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, email, phone, user_type, location, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, profile.ID, profile.FullName, profile.Email, profile.Phone, profile.UserType,
		profile.Location, string(hash), profile.CreatedAt)
	if err != nil {
		return nil, err
	}

	if reg.UserType == domain.UserTypeSeller {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO seller_profiles (id, profile_id, business_name, business_description, verification_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		`, uuid.New().String(), profile.ID, reg.BusinessName, reg.BusinessDescription,
			domain.VerificationPending)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Login checks the password and issues an opaque session token.
func (r *AuthRepository) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var (
		profileID string
		userType  domain.UserType
		hash      string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_type, password_hash FROM profiles WHERE email = $1
	`, email).Scan(&profileID, &userType, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := &domain.Session{
		Token:     uuid.New().String(),
		ProfileID: profileID,
		UserType:  userType,
		ExpiresAt: time.Now().UTC().Add(r.sessionTTL),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, profile_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
	`, session.Token, session.ProfileID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Validate resolves a bearer token to its session, deleting it when expired
// so tokens invalidate on expiry, not just on logout.
func (r *AuthRepository) Validate(ctx context.Context, token string) (*domain.Session, error) {
	session := &domain.Session{Token: token}

	err := r.db.QueryRowContext(ctx, `
		SELECT s.profile_id, p.user_type, s.expires_at
		FROM sessions s
		JOIN profiles p ON p.id = s.profile_id
		WHERE s.token = $1
	`, token).Scan(&session.ProfileID, &session.UserType, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
		return nil, ErrSessionExpired
	}

	return session, nil
}

func (r *AuthRepository) Logout(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (r *AuthRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone, user_type, location, created_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&profile.ID, &profile.FullName, &profile.Email, &profile.Phone,
		&profile.UserType, &profile.Location, &profile.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}
