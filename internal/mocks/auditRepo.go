package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Insert(log *models.AuditLog) (*models.AuditLog, error) {
	args := m.Called(log)
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditRepo) List(entity string, limit, offset int) ([]models.AuditLog, error) {
	return nil, nil
}

func (m *MockAuditRepo) CountConsecutiveFailedLoginAttempts(userID, action string) int {
	args := m.Called(userID, action)
	return args.Int(0)
}
