package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockRequirementRepo struct {
	mock.Mock
}

func (m *MockRequirementRepo) GetAll() ([]models.DocumentRequirement, error) {
	args := m.Called()
	return args.Get(0).([]models.DocumentRequirement), args.Error(1)
}

func (m *MockRequirementRepo) FindByCode(code string) (*models.DocumentRequirement, bool, error) {
	args := m.Called(code)
	return args.Get(0).(*models.DocumentRequirement), args.Bool(1), args.Error(2)
}

func (m *MockRequirementRepo) Count() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}
