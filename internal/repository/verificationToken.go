package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type VerificationTokenRepository interface {
	Insert(token *models.VerificationToken, tx *sqlx.Tx) error
	Consume(hashedToken, purpose string) (*models.VerificationToken, bool, error)
}

type VerificationTokenRepositoryImpl struct {
	db *sqlx.DB
}

func NewVerificationTokenRepository(db *sqlx.DB) VerificationTokenRepository {
	return &VerificationTokenRepositoryImpl{db: db}
}

func (repo *VerificationTokenRepositoryImpl) Insert(token *models.VerificationToken, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO verification_tokens (user_id, hashed_token, purpose, expires_at)
		VALUES ($1, $2, $3, $4)`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, token.UserID, token.HashedToken, token.Purpose, token.ExpiresAt)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, token.UserID, token.HashedToken, token.Purpose, token.ExpiresAt)
	return err
}

// Consume marks the token used and returns it. A token that is unknown,
// expired, or already used returns found = false.
func (repo *VerificationTokenRepositoryImpl) Consume(hashedToken, purpose string) (*models.VerificationToken, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var token models.VerificationToken

	query := `
		UPDATE verification_tokens
		SET used_at = $1
		WHERE hashed_token = $2 AND purpose = $3 AND used_at IS NULL AND expires_at > $1
		RETURNING *`

	err := repo.db.GetContext(ctx, &token, query, time.Now(), hashedToken, purpose)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &token, true, nil
}
