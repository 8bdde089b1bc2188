package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type ContractorRepository interface {
	Insert(profile *models.ContractorProfile, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.ContractorProfile, bool, error)
	FindByUserID(userID string) (*models.ContractorProfile, bool, error)
	CheckIfCRNumberExist(crNumber string) (bool, error)
	List(status, search string, limit, offset int) ([]models.ContractorProfile, error)
	UpdateStatus(id, status string) (bool, error)
	CountByStatus() (map[string]int, error)
}

type ContractorRepositoryImpl struct {
	db *sqlx.DB
}

func NewContractorRepository(db *sqlx.DB) ContractorRepository {
	return &ContractorRepositoryImpl{db: db}
}

func (repo *ContractorRepositoryImpl) Insert(profile *models.ContractorProfile, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO contractor_profiles (user_id, company_name, cr_number, city, services)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			profile.UserID,
			profile.CompanyName,
			profile.CRNumber,
			profile.City,
			profile.Services,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			profile.UserID,
			profile.CompanyName,
			profile.CRNumber,
			profile.City,
			profile.Services,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *ContractorRepositoryImpl) GetOne(id string) (*models.ContractorProfile, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var profile models.ContractorProfile

	query := `SELECT * FROM contractor_profiles WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &profile, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &profile, true, nil
}

func (repo *ContractorRepositoryImpl) FindByUserID(userID string) (*models.ContractorProfile, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var profile models.ContractorProfile

	query := `SELECT * FROM contractor_profiles WHERE user_id = $1 AND deleted_at IS NULL LIMIT 1`

	err := repo.db.GetContext(ctx, &profile, query, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &profile, true, nil
}

func (repo *ContractorRepositoryImpl) CheckIfCRNumberExist(crNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM contractor_profiles WHERE cr_number = $1)`

	err := repo.db.GetContext(ctx, &exists, query, crNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *ContractorRepositoryImpl) List(status, search string, limit, offset int) ([]models.ContractorProfile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var profiles []models.ContractorProfile

	query := `
		SELECT * FROM contractor_profiles
		WHERE deleted_at IS NULL
		AND ($1 = '' OR status = $1)
		AND ($2 = '' OR company_name ILIKE '%' || $2 || '%' OR city ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	err := repo.db.SelectContext(ctx, &profiles, query, status, search, limit, offset)
	if err != nil {
		return nil, err
	}

	return profiles, nil
}

func (repo *ContractorRepositoryImpl) UpdateStatus(id, status string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE contractor_profiles
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := repo.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (repo *ContractorRepositoryImpl) CountByStatus() (map[string]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		SELECT status, COUNT(*)
		FROM contractor_profiles
		WHERE deleted_at IS NULL
		GROUP BY status`

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
