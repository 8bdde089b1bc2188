package models

import (
	"database/sql"
	"time"
)

type Quote struct {
	ID                    string          `db:"id"`
	Reference             string          `db:"reference"`
	UserID                string          `db:"user_id"`
	ProductID             string          `db:"product_id"`
	ContractorID          sql.NullString  `db:"contractor_id"`
	InstallAddress        string          `db:"install_address"`
	InstallCity           string          `db:"install_city"`
	TermMonths            int             `db:"term_months"`
	Status                string          `db:"status"`
	TotalPriceSAR         sql.NullFloat64 `db:"total_price_sar"`
	MonthlyInstallmentSAR sql.NullFloat64 `db:"monthly_installment_sar"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             sql.NullTime    `db:"updated_at"`
}

const (
	QuoteStatusRequested = "requested"
	QuoteStatusOffered   = "offered"
	QuoteStatusAccepted  = "accepted"
	QuoteStatusCancelled = "cancelled"
)
