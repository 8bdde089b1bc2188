package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/shamsfin/shamsi/internal/models"
)

type MockKycDocumentRepo struct {
	mock.Mock
}

func (m *MockKycDocumentRepo) Insert(doc *models.KYCDocument, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockKycDocumentRepo) Supersede(id string, tx *sqlx.Tx) error {
	return nil
}

func (m *MockKycDocumentRepo) GetOne(id string) (*models.KYCDocument, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.KYCDocument), args.Bool(1), args.Error(2)
}

func (m *MockKycDocumentRepo) GetLiveForUser(userID string) ([]models.KYCDocument, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.KYCDocument), args.Error(1)
}

func (m *MockKycDocumentRepo) GetLiveByRequirement(userID, requirementID string) (*models.KYCDocument, bool, error) {
	args := m.Called(userID, requirementID)
	return args.Get(0).(*models.KYCDocument), args.Bool(1), args.Error(2)
}

func (m *MockKycDocumentRepo) ListPending(limit, offset int) ([]models.KYCDocument, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]models.KYCDocument), args.Error(1)
}

func (m *MockKycDocumentRepo) CountPending() (int, error) {
	return 0, nil
}

func (m *MockKycDocumentRepo) Review(id, status, note, reviewerID string, tx *sqlx.Tx) (bool, error) {
	return false, nil
}
