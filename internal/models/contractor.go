package models

import (
	"database/sql"
	"time"
)

type ContractorProfile struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	CompanyName string       `db:"company_name"`
	CRNumber    string       `db:"cr_number"`
	City        string       `db:"city"`
	Services    string       `db:"services"`
	Status      string       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
	DeletedAt   sql.NullTime `db:"deleted_at"`
}

const (
	ContractorStatusPending   = "pending"
	ContractorStatusApproved  = "approved"
	ContractorStatusRejected  = "rejected"
	ContractorStatusSuspended = "suspended"
)
