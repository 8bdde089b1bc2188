package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func resetRequest(t *testing.T, target string, body map[string]string) *http.Request {
	t.Helper()

	requestBody, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", target, bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestHandleForgotPassword_UnknownEmailGetsSameResponse(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockTokenRepo := new(mocks.MockVerificationTokenRepo)

	mockUserRepo.On("GetByEmail", "nobody@example.com").Return((*models.User)(nil), false, nil)

	authHandler, wg := newTestAuthHandler(mockUserRepo, new(mocks.MockSessionRepo), new(mocks.MockAuditRepo))
	authHandler.TokenRepo = mockTokenRepo

	rr := httptest.NewRecorder()
	authHandler.HandleForgotPassword(rr, resetRequest(t, "/api/auth/forgot-password", map[string]string{
		"email": "nobody@example.com",
	}))

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "reset link has been sent")

	mockTokenRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestHandleResetPassword_RevokesAllSessions(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockSessionRepo := new(mocks.MockSessionRepo)
	mockAuditRepo := new(mocks.MockAuditRepo)
	mockTokenRepo := new(mocks.MockVerificationTokenRepo)

	mockTokenRepo.On("Consume", mock.Anything, models.TokenPurposePasswordReset).
		Return(&models.VerificationToken{UserID: "123"}, true, nil)
	mockUserRepo.On("UpdatePassword", "123", mock.Anything).Return(nil)
	mockSessionRepo.On("RevokeAllForUser", "123").Return(nil)
	mockAuditRepo.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)

	authHandler, wg := newTestAuthHandler(mockUserRepo, mockSessionRepo, mockAuditRepo)
	authHandler.TokenRepo = mockTokenRepo

	rr := httptest.NewRecorder()
	authHandler.HandleResetPassword(rr, resetRequest(t, "/api/auth/reset-password", map[string]string{
		"token":    "sometoken",
		"password": "Str0ng#Passw0rd",
	}))

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	mockTokenRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
	mockAuditRepo.AssertExpectations(t)
}

func TestHandleResetPassword_ExpiredToken(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockTokenRepo := new(mocks.MockVerificationTokenRepo)

	mockTokenRepo.On("Consume", mock.Anything, models.TokenPurposePasswordReset).
		Return((*models.VerificationToken)(nil), false, nil)

	authHandler, _ := newTestAuthHandler(mockUserRepo, new(mocks.MockSessionRepo), new(mocks.MockAuditRepo))
	authHandler.TokenRepo = mockTokenRepo

	rr := httptest.NewRecorder()
	authHandler.HandleResetPassword(rr, resetRequest(t, "/api/auth/reset-password", map[string]string{
		"token":    "expiredtoken",
		"password": "Str0ng#Passw0rd",
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid or has expired")

	mockUserRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}
