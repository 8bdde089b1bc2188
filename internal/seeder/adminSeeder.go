package seeders

import (
	"context"
	"database/sql"
	"log"

	"github.com/cradoe/gopass"

	"github.com/shamsfin/shamsi/internal/models"
)

// seedAdminAccount creates the back-office account used to review KYC
// documents and contractors. Runs only when the admin credentials are set
// in the environment and does nothing when the email already exists.
func (seeder *Seeder) seedAdminAccount() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	hashedPassword, err := gopass.Hash(seeder.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (role, first_name, last_name, email, phone_number, national_id, hashed_password, verification_status, email_verified_at)
		VALUES ($1, 'Platform', 'Admin', $2, '+966500000001', '1000000001', $3, $4, now())
		ON CONFLICT (email) DO NOTHING;`,
		models.UserRoleAdmin, seeder.AdminEmail, hashedPassword, models.VerificationVerified,
	)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert admin account: %v", err)
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
