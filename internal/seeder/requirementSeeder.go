package seeders

import (
	"context"
	"database/sql"
	"log"
)

// seedDocumentRequirements seeds the fixed set of KYC documents every
// borrower has to provide before an account can be verified.
func (seeder *Seeder) seedDocumentRequirements() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	requirements := []struct {
		Code  string
		Title string
	}{
		{Code: "national_id_card", Title: "National ID Card"},
		{Code: "proof_of_address", Title: "Proof of Address"},
		{Code: "proof_of_income", Title: "Proof of Income"},
	}

	for _, requirement := range requirements {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_requirements (code, title)
			VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING;`,
			requirement.Code, requirement.Title,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert document requirement '%s': %v", requirement.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
