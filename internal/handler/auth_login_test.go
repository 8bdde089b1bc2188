package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shamsfin/shamsi/internal/config"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// hash of "correctpassword"
const testPasswordHash = "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG"

func newTestAuthHandler(userRepo *mocks.MockUserRepo, sessionRepo *mocks.MockSessionRepo, auditRepo *mocks.MockAuditRepo) (*AuthHandler, *sync.WaitGroup) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	errorHandler := errHandler.New("", mailer, logger)

	baseURL := "http://localhost"
	wg := &sync.WaitGroup{}
	helperRepo := helper.New(&baseURL, wg, errorHandler)

	cfg := &config.Config{}
	cfg.BaseURL = baseURL
	cfg.Jwt.SecretKey = "test_secret"

	authHandler := NewAuthHandler(&AuthHandler{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		AuditRepo:   auditRepo,
		Helper:      helperRepo,
		Mailer:      mailer,
		Config:      cfg,
		ErrHandler:  errorHandler,
	})

	return authHandler, wg
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()

	requestBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	req, err := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockSessionRepo := new(mocks.MockSessionRepo)
	mockAuditRepo := new(mocks.MockAuditRepo)

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		Status:         repository.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockSessionRepo.On("Insert", mock.Anything).Return("session-1", nil)
	mockAuditRepo.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)

	authHandler, wg := newTestAuthHandler(mockUserRepo, mockSessionRepo, mockAuditRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "correctpassword"))

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "Expected response['data'] to be a map")

	require.NotEmpty(t, data["auth_token"])
	require.NotEmpty(t, data["token_expiry"])
	require.NotEmpty(t, data["refresh_token"])

	mockUserRepo.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
	mockAuditRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockSessionRepo := new(mocks.MockSessionRepo)
	mockAuditRepo := new(mocks.MockAuditRepo)

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		Status:         repository.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockAuditRepo.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)
	mockAuditRepo.On("CountConsecutiveFailedLoginAttempts", "123", UserAuditFailedLoginAction).Return(0)

	authHandler, wg := newTestAuthHandler(mockUserRepo, mockSessionRepo, mockAuditRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "wrongpassword"))

	wg.Wait()

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	mockUserRepo.AssertExpectations(t)
	mockAuditRepo.AssertExpectations(t)
	mockSessionRepo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleAuthLogin_LocksAfterThirdFailure(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockSessionRepo := new(mocks.MockSessionRepo)
	mockAuditRepo := new(mocks.MockAuditRepo)

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		Status:         repository.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockUserRepo.On("Lock", "123").Return(nil)
	mockAuditRepo.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)
	mockAuditRepo.On("CountConsecutiveFailedLoginAttempts", "123", UserAuditFailedLoginAction).Return(2)

	authHandler, wg := newTestAuthHandler(mockUserRepo, mockSessionRepo, mockAuditRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "wrongpassword"))

	wg.Wait()

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "locked")

	mockUserRepo.AssertExpectations(t)
	mockAuditRepo.AssertExpectations(t)
}
