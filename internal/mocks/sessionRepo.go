package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Insert(session *models.Session) (string, error) {
	args := m.Called(session)
	return args.String(0), args.Error(1)
}

func (m *MockSessionRepo) FindActiveByHashedToken(hashedToken string) (*models.Session, bool, error) {
	args := m.Called(hashedToken)
	return args.Get(0).(*models.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionRepo) Revoke(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockSessionRepo) RevokeAllForUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}
