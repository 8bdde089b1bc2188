package models

import (
	"database/sql"
	"time"
)

type DocumentRequirement struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

type KYCDocument struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	RequirementID string         `db:"requirement_id"`
	FileURL       string         `db:"file_url"`
	Status        string         `db:"status"`
	ReviewNote    sql.NullString `db:"review_note"`
	ReviewedBy    sql.NullString `db:"reviewed_by"`
	ReviewedAt    sql.NullTime   `db:"reviewed_at"`
	SupersededAt  sql.NullTime   `db:"superseded_at"`
	CreatedAt     time.Time      `db:"created_at"`

	// populated by joins against document_requirements
	RequirementCode  string `db:"requirement_code"`
	RequirementTitle string `db:"requirement_title"`
}

const (
	DocumentStatusSubmitted = "submitted"
	DocumentStatusApproved  = "approved"
	DocumentStatusRejected  = "rejected"
)

const (
	RequirementNationalIDCard = "national_id_card"
	RequirementProofOfAddress = "proof_of_address"
	RequirementProofOfIncome  = "proof_of_income"
)
