package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                 string          `db:"id"`
	Role               string          `db:"role"`
	FirstName          string          `db:"first_name"`
	LastName           string          `db:"last_name"`
	Email              string          `db:"email"`
	PhoneNumber        string          `db:"phone_number"`
	NationalID         string          `db:"national_id"`
	HashedPassword     string          `db:"hashed_password"`
	VerificationStatus string          `db:"verification_status"`
	Status             string          `db:"status"`
	DateOfBirth        sql.NullTime    `db:"date_of_birth"`
	City               sql.NullString  `db:"city"`
	Address            sql.NullString  `db:"address"`
	Employer           sql.NullString  `db:"employer"`
	MonthlyIncomeSAR   sql.NullFloat64 `db:"monthly_income_sar"`
	EmailVerifiedAt    sql.NullTime    `db:"email_verified_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          sql.NullTime    `db:"updated_at"`
	DeletedAt          sql.NullTime    `db:"deleted_at"`
}

const (
	UserRoleCustomer   = "customer"
	UserRoleContractor = "contractor"
	UserRoleAdmin      = "admin"
)

const (
	// VerificationNotVerified is the default status after registration,
	// before every required KYC document is on file.
	VerificationNotVerified = "not_verified"

	// VerificationPending means every required document has been submitted
	// and the account is waiting on an admin decision.
	VerificationPending = "pending"

	// VerificationVerified means an admin approved all required documents
	// and the profile checklist is complete. Verified accounts can request
	// financing quotes. The status never downgrades automatically.
	VerificationVerified = "verified"

	// VerificationRejected means an admin rejected at least one document.
	// Replacing the rejected document moves the account back to pending.
	VerificationRejected = "rejected"
)
