package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type ProductRepository interface {
	Insert(product *models.Product) (string, error)
	Update(id string, product *models.Product) (bool, error)
	GetOne(id string) (*models.Product, bool, error)
	GetAllActive() ([]models.Product, error)
}

type ProductRepositoryImpl struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &ProductRepositoryImpl{db: db}
}

func (repo *ProductRepositoryImpl) Insert(product *models.Product) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO products (name, slug, description, panel_count, capacity_kw, price_sar, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		product.Name,
		product.Slug,
		product.Description,
		product.PanelCount,
		product.CapacityKW,
		product.PriceSAR,
		product.Active,
	)

	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *ProductRepositoryImpl) Update(id string, product *models.Product) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE products
		SET name = $1,
		    description = $2,
		    panel_count = $3,
		    capacity_kw = $4,
		    price_sar = $5,
		    active = $6,
		    updated_at = $7
		WHERE id = $8`

	result, err := repo.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.PanelCount,
		product.CapacityKW,
		product.PriceSAR,
		product.Active,
		time.Now(),
		id,
	)

	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (repo *ProductRepositoryImpl) GetOne(id string) (*models.Product, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var product models.Product

	query := `SELECT * FROM products WHERE id = $1`

	err := repo.db.GetContext(ctx, &product, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &product, true, nil
}

func (repo *ProductRepositoryImpl) GetAllActive() ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var products []models.Product

	query := `SELECT * FROM products WHERE active = true ORDER BY price_sar ASC`

	err := repo.db.SelectContext(ctx, &products, query)
	if err != nil {
		return nil, err
	}

	return products, nil
}
