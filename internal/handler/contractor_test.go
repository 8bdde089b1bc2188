package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestContractorHandler(contractorRepo *mocks.MockContractorRepo) *ContractorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return NewContractorHandler(&ContractorHandler{
		ContractorRepo: contractorRepo,
		Kafka:          stream.New("localhost:9092"),
		ErrHandler:     errHandler.New("", mailer, logger),
	})
}

func adminUser() *models.User {
	return &models.User{
		ID:   "admin-1",
		Role: models.UserRoleAdmin,
	}
}

func TestHandleUpdateContractorStatus_ApprovesPendingProfile(t *testing.T) {
	contractorRepo := new(mocks.MockContractorRepo)

	contractorRepo.On("GetOne", "profile-1").Return(&models.ContractorProfile{
		ID:     "profile-1",
		Status: models.ContractorStatusPending,
	}, true, nil)
	contractorRepo.On("UpdateStatus", "profile-1", models.ContractorStatusApproved).Return(true, nil)

	contractorHandler := newTestContractorHandler(contractorRepo)

	req := authenticatedRequest(t, "PATCH", "/api/admin/contractors/profile-1/status", map[string]any{
		"status": models.ContractorStatusApproved,
	}, adminUser())
	req.SetPathValue("id", "profile-1")

	rr := httptest.NewRecorder()
	contractorHandler.HandleUpdateContractorStatus(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	contractorRepo.AssertExpectations(t)
}

func TestHandleUpdateContractorStatus_RejectsInvalidTransition(t *testing.T) {
	contractorRepo := new(mocks.MockContractorRepo)

	// an approved contractor cannot be moved to rejected, only suspended
	contractorRepo.On("GetOne", "profile-1").Return(&models.ContractorProfile{
		ID:     "profile-1",
		Status: models.ContractorStatusApproved,
	}, true, nil)

	contractorHandler := newTestContractorHandler(contractorRepo)

	req := authenticatedRequest(t, "PATCH", "/api/admin/contractors/profile-1/status", map[string]any{
		"status": models.ContractorStatusRejected,
	}, adminUser())
	req.SetPathValue("id", "profile-1")

	rr := httptest.NewRecorder()
	contractorHandler.HandleUpdateContractorStatus(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	contractorRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestHandleUpdateContractorStatus_ReactivatesSuspendedProfile(t *testing.T) {
	contractorRepo := new(mocks.MockContractorRepo)

	contractorRepo.On("GetOne", "profile-1").Return(&models.ContractorProfile{
		ID:     "profile-1",
		Status: models.ContractorStatusSuspended,
	}, true, nil)
	contractorRepo.On("UpdateStatus", "profile-1", models.ContractorStatusApproved).Return(true, nil)

	contractorHandler := newTestContractorHandler(contractorRepo)

	req := authenticatedRequest(t, "PATCH", "/api/admin/contractors/profile-1/status", map[string]any{
		"status": models.ContractorStatusApproved,
	}, adminUser())
	req.SetPathValue("id", "profile-1")

	rr := httptest.NewRecorder()
	contractorHandler.HandleUpdateContractorStatus(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	contractorRepo.AssertExpectations(t)
}
