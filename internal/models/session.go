package models

import (
	"database/sql"
	"time"
)

type Session struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	HashedToken string       `db:"hashed_token"`
	ExpiresAt   time.Time    `db:"expires_at"`
	RevokedAt   sql.NullTime `db:"revoked_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

type VerificationToken struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	HashedToken string       `db:"hashed_token"`
	Purpose     string       `db:"purpose"`
	ExpiresAt   time.Time    `db:"expires_at"`
	UsedAt      sql.NullTime `db:"used_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

const (
	TokenPurposeEmailVerification = "email_verification"
	TokenPurposePasswordReset     = "password_reset"
)
