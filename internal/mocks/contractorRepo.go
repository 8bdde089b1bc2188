package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockContractorRepo struct {
	mock.Mock
}

func (m *MockContractorRepo) Insert(profile *models.ContractorProfile, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockContractorRepo) GetOne(id string) (*models.ContractorProfile, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.ContractorProfile), args.Bool(1), args.Error(2)
}

func (m *MockContractorRepo) FindByUserID(userID string) (*models.ContractorProfile, bool, error) {
	args := m.Called(userID)
	return args.Get(0).(*models.ContractorProfile), args.Bool(1), args.Error(2)
}

func (m *MockContractorRepo) CheckIfCRNumberExist(crNumber string) (bool, error) {
	return false, nil
}

func (m *MockContractorRepo) List(status, search string, limit, offset int) ([]models.ContractorProfile, error) {
	args := m.Called(status, search, limit, offset)
	return args.Get(0).([]models.ContractorProfile), args.Error(1)
}

func (m *MockContractorRepo) UpdateStatus(id, status string) (bool, error) {
	args := m.Called(id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractorRepo) CountByStatus() (map[string]int, error) {
	return map[string]int{}, nil
}
