package seeders

import (
	"context"
	"database/sql"
	"log"
)

// seedProductCatalog seeds the starter solar system catalog so a fresh
// environment has something to quote against.
func (seeder *Seeder) seedProductCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	products := []struct {
		Name        string
		Slug        string
		Description string
		PanelCount  int
		CapacityKW  float64
		PriceSAR    float64
	}{
		{
			Name:        "Home Starter 5kW",
			Slug:        "home-starter-5kw",
			Description: "Entry system for apartments and small villas, covers basic daytime load.",
			PanelCount:  12,
			CapacityKW:  5,
			PriceSAR:    21000,
		},
		{
			Name:        "Villa 10kW",
			Slug:        "villa-10kw",
			Description: "Mid-size system for villas with AC load, the most requested configuration.",
			PanelCount:  24,
			CapacityKW:  10,
			PriceSAR:    39500,
		},
		{
			Name:        "Estate 15kW",
			Slug:        "estate-15kw",
			Description: "Large rooftop system for big households and home offices.",
			PanelCount:  36,
			CapacityKW:  15,
			PriceSAR:    56000,
		},
	}

	for _, product := range products {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (name, slug, description, panel_count, capacity_kw, price_sar, active)
			VALUES ($1, $2, $3, $4, $5, $6, true)
			ON CONFLICT (slug) DO NOTHING;`,
			product.Name, product.Slug, product.Description, product.PanelCount, product.CapacityKW, product.PriceSAR,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert product '%s': %v", product.Slug, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
