package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shamsfin/shamsi/internal/models"
)

type UserRepository interface {
	Insert(user *models.User, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.User, bool, error)
	GetByEmail(email string) (*models.User, bool, error)
	CheckIfPhoneNumberExist(phoneNumber string) (bool, error)
	CheckIfNationalIDExist(nationalID string) (bool, error)
	UpdateProfile(id string, user *models.User) error
	SetEmailVerified(id string) error
	SetRole(id, role string, tx *sqlx.Tx) error
	SetVerificationStatus(id, status string, tx *sqlx.Tx) error
	UpdatePassword(id, password string) error
	Lock(id string) error
	CountByVerificationStatus() (map[string]int, error)
}

const (
	// UserAccountActiveStatus indicates that the user's account is active and fully functional.
	UserAccountActiveStatus = "active"

	// UserAccountLockedStatus indicates that the user's account has been locked,
	// e.g. after repeated failed login attempts or by administrative action.
	// A locked account cannot be accessed until support unlocks it.
	UserAccountLockedStatus = "locked"
)

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO users (role, first_name, last_name, email, phone_number, national_id, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			user.Role,
			user.FirstName,
			user.LastName,
			user.Email,
			user.PhoneNumber,
			user.NationalID,
			user.HashedPassword,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			user.Role,
			user.FirstName,
			user.LastName,
			user.Email,
			user.PhoneNumber,
			user.NationalID,
			user.HashedPassword,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1)`

	err := repo.db.GetContext(ctx, &exists, query, phoneNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *UserRepositoryImpl) CheckIfNationalIDExist(nationalID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE national_id = $1)`

	err := repo.db.GetContext(ctx, &exists, query, nationalID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *UserRepositoryImpl) UpdateProfile(id string, user *models.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE users
		SET first_name = $1,
		    last_name = $2,
		    date_of_birth = $3,
		    city = $4,
		    address = $5,
		    employer = $6,
		    monthly_income_sar = $7,
		    updated_at = $8
		WHERE id = $9`

	_, err := repo.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.City,
		user.Address,
		user.Employer,
		user.MonthlyIncomeSAR,
		time.Now(),
		id,
	)
	return err
}

func (repo *UserRepositoryImpl) SetEmailVerified(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET email_verified_at = $1 WHERE id = $2 AND email_verified_at IS NULL`

	_, err := repo.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (repo *UserRepositoryImpl) SetRole(id, role string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET role = $1 WHERE id = $2`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, role, id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, role, id)
	return err
}

func (repo *UserRepositoryImpl) SetVerificationStatus(id, status string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET verification_status = $1, updated_at = $2 WHERE id = $3`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, status, time.Now(), id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

func (repo *UserRepositoryImpl) UpdatePassword(id, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET hashed_password = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, password, id)
	return err
}

func (repo *UserRepositoryImpl) Lock(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, UserAccountLockedStatus, id)
	return err
}

func (repo *UserRepositoryImpl) CountByVerificationStatus() (map[string]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		SELECT verification_status, COUNT(*)
		FROM users
		WHERE role = 'customer' AND deleted_at IS NULL
		GROUP BY verification_status`

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
