package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type KycDocumentRepository interface {
	Insert(doc *models.KYCDocument, tx *sqlx.Tx) (string, error)
	Supersede(id string, tx *sqlx.Tx) error
	GetOne(id string) (*models.KYCDocument, bool, error)
	GetLiveForUser(userID string) ([]models.KYCDocument, error)
	GetLiveByRequirement(userID, requirementID string) (*models.KYCDocument, bool, error)
	ListPending(limit, offset int) ([]models.KYCDocument, error)
	CountPending() (int, error)
	Review(id, status, note, reviewerID string, tx *sqlx.Tx) (bool, error)
}

type KycDocumentRepositoryImpl struct {
	db *sqlx.DB
}

func NewKycDocumentRepository(db *sqlx.DB) KycDocumentRepository {
	return &KycDocumentRepositoryImpl{db: db}
}

func (repo *KycDocumentRepositoryImpl) Insert(doc *models.KYCDocument, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO kyc_documents (user_id, requirement_id, file_url)
		VALUES ($1, $2, $3)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, doc.UserID, doc.RequirementID, doc.FileURL).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, doc.UserID, doc.RequirementID, doc.FileURL)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

// Supersede retires a document so a replacement can become the live one for
// its requirement. Superseded documents stay on record for the audit trail.
func (repo *KycDocumentRepositoryImpl) Supersede(id string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE kyc_documents SET superseded_at = $1 WHERE id = $2 AND superseded_at IS NULL`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, time.Now(), id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (repo *KycDocumentRepositoryImpl) GetOne(id string) (*models.KYCDocument, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var doc models.KYCDocument

	query := `
		SELECT
			kd.*,
			dr.code AS requirement_code,
			dr.title AS requirement_title
		FROM kyc_documents kd
		JOIN document_requirements dr ON kd.requirement_id = dr.id
		WHERE kd.id = $1`

	err := repo.db.GetContext(ctx, &doc, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &doc, true, nil
}

func (repo *KycDocumentRepositoryImpl) GetLiveForUser(userID string) ([]models.KYCDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var docs []models.KYCDocument

	query := `
		SELECT
			kd.*,
			dr.code AS requirement_code,
			dr.title AS requirement_title
		FROM kyc_documents kd
		JOIN document_requirements dr ON kd.requirement_id = dr.id
		WHERE kd.user_id = $1 AND kd.superseded_at IS NULL
		ORDER BY dr.code`

	err := repo.db.SelectContext(ctx, &docs, query, userID)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (repo *KycDocumentRepositoryImpl) GetLiveByRequirement(userID, requirementID string) (*models.KYCDocument, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var doc models.KYCDocument

	query := `
		SELECT kd.*, '' AS requirement_code, '' AS requirement_title
		FROM kyc_documents kd
		WHERE kd.user_id = $1 AND kd.requirement_id = $2 AND kd.superseded_at IS NULL`

	err := repo.db.GetContext(ctx, &doc, query, userID, requirementID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &doc, true, nil
}

func (repo *KycDocumentRepositoryImpl) ListPending(limit, offset int) ([]models.KYCDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var docs []models.KYCDocument

	query := `
		SELECT
			kd.*,
			dr.code AS requirement_code,
			dr.title AS requirement_title
		FROM kyc_documents kd
		JOIN document_requirements dr ON kd.requirement_id = dr.id
		WHERE kd.status = $1 AND kd.superseded_at IS NULL
		ORDER BY kd.created_at ASC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &docs, query, models.DocumentStatusSubmitted, limit, offset)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (repo *KycDocumentRepositoryImpl) CountPending() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `
		SELECT COUNT(*) FROM kyc_documents
		WHERE status = $1 AND superseded_at IS NULL`

	err := repo.db.GetContext(ctx, &count, query, models.DocumentStatusSubmitted)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Review records an admin decision. Only a live, still-submitted document
// can be decided, which makes the operation idempotent under double clicks.
func (repo *KycDocumentRepositoryImpl) Review(id, status, note, reviewerID string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE kyc_documents
		SET status = $1, review_note = NULLIF($2, ''), reviewed_by = $3, reviewed_at = $4
		WHERE id = $5 AND status = $6 AND superseded_at IS NULL`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, note, reviewerID, time.Now(), id, models.DocumentStatusSubmitted)
	} else {
		result, err = repo.db.ExecContext(ctx, query, status, note, reviewerID, time.Now(), id, models.DocumentStatusSubmitted)
	}

	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
