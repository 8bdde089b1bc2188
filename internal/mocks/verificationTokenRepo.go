package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockVerificationTokenRepo struct {
	mock.Mock
}

func (m *MockVerificationTokenRepo) Insert(token *models.VerificationToken, tx *sqlx.Tx) error {
	args := m.Called(token, tx)
	return args.Error(0)
}

func (m *MockVerificationTokenRepo) Consume(hashedToken, purpose string) (*models.VerificationToken, bool, error) {
	args := m.Called(hashedToken, purpose)
	return args.Get(0).(*models.VerificationToken), args.Bool(1), args.Error(2)
}
