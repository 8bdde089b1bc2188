package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) CheckIfNationalIDExist(nationalID string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) UpdateProfile(id string, user *models.User) error {
	args := m.Called(id, user)
	return args.Error(0)
}

func (m *MockUserRepo) SetEmailVerified(id string) error {
	return nil
}

func (m *MockUserRepo) SetRole(id, role string, tx *sqlx.Tx) error {
	return nil
}

func (m *MockUserRepo) SetVerificationStatus(id, status string, tx *sqlx.Tx) error {
	args := m.Called(id, status, tx)
	return args.Error(0)
}

func (m *MockUserRepo) UpdatePassword(id, password string) error {
	args := m.Called(id, password)
	return args.Error(0)
}

func (m *MockUserRepo) Lock(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockUserRepo) CountByVerificationStatus() (map[string]int, error) {
	return map[string]int{}, nil
}
