// Every sensitive action ends up in audit_logs, synchronously for the
// auth flows that read it back (lockout counting) and via the Kafka audit
// worker for everything else. SAMA compliance reviews read this table, so
// rows are append-only and never updated or deleted.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type AuditRepository interface {
	Insert(log *models.AuditLog) (*models.AuditLog, error)
	List(entity string, limit, offset int) ([]models.AuditLog, error)
	CountConsecutiveFailedLoginAttempts(userID, action string) int
}

const (
	// AuditUserEntity covers account actions: registration, login, lockout,
	// email verification, profile updates
	AuditUserEntity = "user"

	// AuditDocumentEntity covers KYC document submissions and decisions
	AuditDocumentEntity = "kyc_document"

	// AuditContractorEntity covers contractor profile and status changes
	AuditContractorEntity = "contractor"

	// AuditQuoteEntity covers quote lifecycle actions
	AuditQuoteEntity = "quote"

	// AuditProductEntity covers catalog changes by admins
	AuditProductEntity = "product"
)

type AuditRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (repo *AuditRepositoryImpl) Insert(log *models.AuditLog) (*models.AuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO audit_logs (actor_id, entity, entity_id, action)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repo.db.QueryRowContext(ctx, query,
		log.ActorID,
		log.Entity,
		log.EntityId,
		log.Action,
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		return nil, err
	}

	return log, nil
}

func (repo *AuditRepositoryImpl) List(entity string, limit, offset int) ([]models.AuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var logs []models.AuditLog

	query := `
		SELECT * FROM audit_logs
		WHERE ($1 = '' OR entity = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &logs, query, entity, limit, offset)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// CountConsecutiveFailedLoginAttempts checks the most recent account
// actions in descending order and counts failures until a non-failure
// entry or the lockout threshold is reached.
func (repo *AuditRepositoryImpl) CountConsecutiveFailedLoginAttempts(userID, action string) int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var actions []string

	query := `
		SELECT action
		FROM audit_logs
		WHERE actor_id = $1 AND entity = $2
		ORDER BY created_at DESC
		LIMIT 3
	`
	err := repo.db.SelectContext(ctx, &actions, query, userID, AuditUserEntity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0
		}
		return 0
	}

	count := 0
	for _, a := range actions {
		if a == action {
			count++
		} else {
			break
		}
	}

	return count
}
