package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var regions = []string{"Dar es Salaam", "Arusha", "Mwanza", "Dodoma", "Mbeya", "Morogoro", "Tanga"}

var cropCatalog = []struct {
	name     string
	category string
	unit     string
}{
	{"Maize", "grains", "kg"},
	{"Rice", "grains", "kg"},
	{"Beans", "legumes", "kg"},
	{"Cassava", "tubers", "kg"},
	{"Sweet Potatoes", "tubers", "kg"},
	{"Tomatoes", "vegetables", "crate"},
	{"Onions", "vegetables", "bag"},
	{"Spinach", "vegetables", "bundle"},
	{"Bananas", "fruits", "bunch"},
	{"Avocados", "fruits", "crate"},
	{"Mangoes", "fruits", "crate"},
	{"Sunflower Oil", "processed", "litre"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	buyers := flag.Int("buyers", 20, "number of buyer profiles")
	sellers := flag.Int("sellers", 8, "number of seller profiles")
	cropsPerSeller := flag.Int("crops", 6, "crop listings per seller")
	flag.Parse()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	f := faker.New()

	// Every seeded account shares one password to keep local testing simple.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	for i := 0; i < *buyers; i++ {
		if _, err := insertProfile(ctx, db, f, string(passwordHash), "buyer"); err != nil {
			logger.Error("failed to insert buyer", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("seeded buyers", "count", *buyers)

	for i := 0; i < *sellers; i++ {
		profileID, err := insertProfile(ctx, db, f, string(passwordHash), "seller")
		if err != nil {
			logger.Error("failed to insert seller", "error", err)
			os.Exit(1)
		}

		businessName := f.Person().LastName() + " Farm Produce"
		_, err = db.ExecContext(ctx, `
			INSERT INTO seller_profiles (id, profile_id, business_name, business_description, verification_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'verified', NOW(), NOW())
		`, uuid.New().String(), profileID, businessName, f.Lorem().Sentence(8))
		if err != nil {
			logger.Error("failed to insert seller profile", "error", err)
			os.Exit(1)
		}

		for j := 0; j < *cropsPerSeller; j++ {
			crop := cropCatalog[f.IntBetween(0, len(cropCatalog)-1)]
			_, err := db.ExecContext(ctx, `
				INSERT INTO crops (id, seller_id, name, category, description, price_per_unit, unit, quantity_available, location, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			`, uuid.New().String(), profileID, crop.name, crop.category, f.Lorem().Sentence(10),
				int64(f.IntBetween(500, 25000)), crop.unit, f.IntBetween(10, 500),
				regions[f.IntBetween(0, len(regions)-1)])
			if err != nil {
				logger.Error("failed to insert crop", "error", err)
				os.Exit(1)
			}
		}
	}
	logger.Info("seeded sellers with crops", "sellers", *sellers, "crops_each", *cropsPerSeller)

	_, err = db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash, created_at)
		VALUES ($1, 'admin@agroconnect.co.tz', $2, NOW())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New().String(), string(passwordHash))
	if err != nil {
		logger.Error("failed to insert admin user", "error", err)
		os.Exit(1)
	}
	logger.Info("seeded admin user", "email", "admin@agroconnect.co.tz")
}

func insertProfile(ctx context.Context, db *sql.DB, f faker.Faker, passwordHash, userType string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, email, phone, password_hash, user_type, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, id, f.Person().Name(), f.Internet().Email(), f.Phone().E164Number(), passwordHash,
		userType, regions[f.IntBetween(0, len(regions)-1)])
	if err != nil {
		return "", err
	}
	return id, nil
}
