package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type RequirementRepository interface {
	GetAll() ([]models.DocumentRequirement, error)
	FindByCode(code string) (*models.DocumentRequirement, bool, error)
	Count() (int, error)
}

type RequirementRepositoryImpl struct {
	db *sqlx.DB
}

func NewRequirementRepository(db *sqlx.DB) RequirementRepository {
	return &RequirementRepositoryImpl{db: db}
}

func (repo *RequirementRepositoryImpl) GetAll() ([]models.DocumentRequirement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var requirements []models.DocumentRequirement

	query := `SELECT * FROM document_requirements ORDER BY code`

	err := repo.db.SelectContext(ctx, &requirements, query)
	if err != nil {
		return nil, err
	}

	return requirements, nil
}

func (repo *RequirementRepositoryImpl) FindByCode(code string) (*models.DocumentRequirement, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var requirement models.DocumentRequirement

	query := `SELECT * FROM document_requirements WHERE code = $1 LIMIT 1`

	err := repo.db.GetContext(ctx, &requirement, query, code)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &requirement, true, nil
}

func (repo *RequirementRepositoryImpl) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `SELECT COUNT(*) FROM document_requirements`

	err := repo.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}
