package models

import (
	"database/sql"
	"time"
)

type Product struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	Slug        string       `db:"slug"`
	Description string       `db:"description"`
	PanelCount  int          `db:"panel_count"`
	CapacityKW  float64      `db:"capacity_kw"`
	PriceSAR    float64      `db:"price_sar"`
	Active      bool         `db:"active"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
}
