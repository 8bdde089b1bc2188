package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockQuoteRepo struct {
	mock.Mock
}

func (m *MockQuoteRepo) Insert(quote *models.Quote) (string, error) {
	args := m.Called(quote)
	return args.String(0), args.Error(1)
}

func (m *MockQuoteRepo) GetOne(id string) (*models.Quote, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.Quote), args.Bool(1), args.Error(2)
}

func (m *MockQuoteRepo) GetAllByUserId(userID string, limit, offset int) ([]models.Quote, error) {
	args := m.Called(userID, limit, offset)
	return args.Get(0).([]models.Quote), args.Error(1)
}

func (m *MockQuoteRepo) SetOffer(id, contractorID string, totalPrice, monthlyInstallment float64) (bool, error) {
	args := m.Called(id, contractorID, totalPrice, monthlyInstallment)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepo) UpdateStatus(id, fromStatus, toStatus string) (bool, error) {
	args := m.Called(id, fromStatus, toStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepo) CountByStatus() (map[string]int, error) {
	return map[string]int{}, nil
}
