package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type SessionRepository interface {
	Insert(session *models.Session) (string, error)
	FindActiveByHashedToken(hashedToken string) (*models.Session, bool, error)
	Revoke(id string) error
	RevokeAllForUser(userID string) error
}

type SessionRepositoryImpl struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (repo *SessionRepositoryImpl) Insert(session *models.Session) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO sessions (user_id, hashed_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		session.UserID,
		session.HashedToken,
		session.ExpiresAt,
	)

	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *SessionRepositoryImpl) FindActiveByHashedToken(hashedToken string) (*models.Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var session models.Session

	query := `
		SELECT * FROM sessions
		WHERE hashed_token = $1 AND revoked_at IS NULL AND expires_at > $2`

	err := repo.db.GetContext(ctx, &session, query, hashedToken, time.Now())

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &session, true, nil
}

func (repo *SessionRepositoryImpl) Revoke(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`

	_, err := repo.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (repo *SessionRepositoryImpl) RevokeAllForUser(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`

	_, err := repo.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}
