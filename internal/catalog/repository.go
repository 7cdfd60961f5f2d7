package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type CropRepository struct {
	db *sql.DB
}

func NewCropRepository(db *sql.DB) *CropRepository {
	return &CropRepository{db: db}
}

const cropColumns = `id, seller_id, name, category, description, price_per_unit,
	unit, quantity_available, location, created_at, updated_at`

func scanCrop(row interface{ Scan(...any) error }, crop *domain.Crop) error {
	return row.Scan(&crop.ID, &crop.SellerID, &crop.Name, &crop.Category,
		&crop.Description, &crop.PricePerUnit, &crop.Unit, &crop.QuantityAvailable,
		&crop.Location, &crop.CreatedAt, &crop.UpdatedAt)
}

func (r *CropRepository) Create(ctx context.Context, crop *domain.Crop) error {
	crop.ID = uuid.New().String()
	crop.CreatedAt = time.Now().UTC()
	crop.UpdatedAt = crop.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crops (id, seller_id, name, category, description, price_per_unit,
			unit, quantity_available, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, crop.ID, crop.SellerID, crop.Name, crop.Category, crop.Description,
		crop.PricePerUnit, crop.Unit, crop.QuantityAvailable, crop.Location, crop.CreatedAt)
	return err
}

func (r *CropRepository) GetByID(ctx context.Context, id string) (*domain.Crop, error) {
	crop := &domain.Crop{}
	row := r.db.QueryRowContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE id = $1`, id)
	if err := scanCrop(row, crop); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return crop, nil
}

func (r *CropRepository) List(ctx context.Context, category string) ([]domain.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE quantity_available > 0`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryCrops(ctx, query, args...)
}

func (r *CropRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Crop, error) {
	return r.queryCrops(ctx, `
		SELECT `+cropColumns+` FROM crops WHERE seller_id = $1 ORDER BY created_at DESC
	`, sellerID)
}

func (r *CropRepository) queryCrops(ctx context.Context, query string, args ...any) ([]domain.Crop, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	crops := []domain.Crop{}
	for rows.Next() {
		var crop domain.Crop
		if err := scanCrop(rows, &crop); err != nil {
			return nil, err
		}
		crops = append(crops, crop)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return crops, nil
}

// Update only touches listing fields the seller owns; guarded by seller_id
// so one seller cannot edit another's crop.
func (r *CropRepository) Update(ctx context.Context, crop *domain.Crop) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE crops
		SET name = $1, category = $2, description = $3, price_per_unit = $4,
			unit = $5, quantity_available = $6, location = $7, updated_at = NOW()
		WHERE id = $8 AND seller_id = $9
	`, crop.Name, crop.Category, crop.Description, crop.PricePerUnit, crop.Unit,
		crop.QuantityAvailable, crop.Location, crop.ID, crop.SellerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCropNotFound
	}
	return nil
}

func (r *CropRepository) Delete(ctx context.Context, id, sellerID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM crops WHERE id = $1 AND seller_id = $2
	`, id, sellerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCropNotFound
	}
	return nil
}

// SellerVerified reports whether the profile has a verified seller profile.
func (r *CropRepository) SellerVerified(ctx context.Context, profileID string) (bool, error) {
	var status domain.VerificationStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT verification_status FROM seller_profiles WHERE profile_id = $1
	`, profileID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return status == domain.VerificationVerified, nil
}

// Search loads the available listings and ranks them in memory; the catalog
// is small enough that this mirrors the substring matching it replaces.
func (r *CropRepository) Search(ctx context.Context, query string) ([]domain.Crop, error) {
	crops, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return SearchCrops(crops, query), nil
}
