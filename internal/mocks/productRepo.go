package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Insert(product *models.Product) (string, error) {
	args := m.Called(product)
	return args.String(0), args.Error(1)
}

func (m *MockProductRepo) Update(id string, product *models.Product) (bool, error) {
	return false, nil
}

func (m *MockProductRepo) GetOne(id string) (*models.Product, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.Product), args.Bool(1), args.Error(2)
}

func (m *MockProductRepo) GetAllActive() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}
