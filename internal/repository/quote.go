package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type QuoteRepository interface {
	Insert(quote *models.Quote) (string, error)
	GetOne(id string) (*models.Quote, bool, error)
	GetAllByUserId(userID string, limit, offset int) ([]models.Quote, error)
	SetOffer(id, contractorID string, totalPrice, monthlyInstallment float64) (bool, error)
	UpdateStatus(id, fromStatus, toStatus string) (bool, error)
	CountByStatus() (map[string]int, error)
}

type QuoteRepositoryImpl struct {
	db *sqlx.DB
}

func NewQuoteRepository(db *sqlx.DB) QuoteRepository {
	return &QuoteRepositoryImpl{db: db}
}

func (repo *QuoteRepositoryImpl) Insert(quote *models.Quote) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO quotes (reference, user_id, product_id, install_address, install_city, term_months)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		quote.Reference,
		quote.UserID,
		quote.ProductID,
		quote.InstallAddress,
		quote.InstallCity,
		quote.TermMonths,
	)

	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *QuoteRepositoryImpl) GetOne(id string) (*models.Quote, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var quote models.Quote

	query := `SELECT * FROM quotes WHERE id = $1`

	err := repo.db.GetContext(ctx, &quote, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &quote, true, nil
}

func (repo *QuoteRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]models.Quote, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var quotes []models.Quote

	query := `
		SELECT * FROM quotes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &quotes, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return quotes, nil
}

// SetOffer attaches a contractor's pricing to a quote. The status guard in
// the WHERE clause means two contractors racing for the same quote cannot
// both win: the second update matches zero rows.
func (repo *QuoteRepositoryImpl) SetOffer(id, contractorID string, totalPrice, monthlyInstallment float64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE quotes
		SET contractor_id = $1,
		    total_price_sar = $2,
		    monthly_installment_sar = $3,
		    status = $4,
		    updated_at = $5
		WHERE id = $6 AND status = $7`

	result, err := repo.db.ExecContext(ctx, query,
		contractorID,
		totalPrice,
		monthlyInstallment,
		models.QuoteStatusOffered,
		time.Now(),
		id,
		models.QuoteStatusRequested,
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

func (repo *QuoteRepositoryImpl) UpdateStatus(id, fromStatus, toStatus string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE quotes
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := repo.db.ExecContext(ctx, query, toStatus, time.Now(), id, fromStatus)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (repo *QuoteRepositoryImpl) CountByStatus() (map[string]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `SELECT status, COUNT(*) FROM quotes GROUP BY status`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
