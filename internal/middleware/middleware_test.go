package middleware

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shamsfin/shamsi/internal/config"
	appcontext "github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"

	"github.com/pascaldekloe/jwt"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret"

func newTestMiddleware(userRepo *mocks.MockUserRepo) *Middleware {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := &config.Config{}
	cfg.BaseURL = "http://localhost"
	cfg.Jwt.SecretKey = testSecret

	return New(errHandler.New("", mailer, logger), logger, userRepo, cfg, nil)
}

func signedToken(t *testing.T, subject, issuer string) string {
	t.Helper()

	var claims jwt.Claims
	claims.Subject = subject
	claims.Issuer = issuer
	claims.Audiences = []string{issuer}
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(time.Now().Add(time.Hour))

	token, err := claims.HMACSign(jwt.HS256, []byte(testSecret))
	require.NoError(t, err)

	return string(token)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)

	testUser := &models.User{
		ID:              "user-1",
		Email:           "test@example.com",
		EmailVerifiedAt: sql.NullTime{Time: time.Now(), Valid: true},
	}
	userRepo.On("GetOne", "user-1").Return(testUser, true, nil)

	mid := newTestMiddleware(userRepo)

	var contextUser *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextUser = appcontext.ContextGetAuthenticatedUser(r)
	})

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-1", "http://localhost"))

	rr := httptest.NewRecorder()
	mid.Authenticate(next).ServeHTTP(rr, req)

	require.NotNil(t, contextUser)
	require.Equal(t, "user-1", contextUser.ID)

	userRepo.AssertExpectations(t)
}

func TestAuthenticate_RejectsWrongIssuer(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	mid := newTestMiddleware(userRepo)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-1", "http://evil.example.com"))

	rr := httptest.NewRecorder()
	mid.Authenticate(next).ServeHTTP(rr, req)

	require.False(t, nextCalled)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthenticatedUser_BlocksUnverifiedEmail(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	mid := newTestMiddleware(userRepo)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req = appcontext.ContextSetAuthenticatedUser(req, &models.User{ID: "user-1"})

	rr := httptest.NewRecorder()
	mid.RequireAuthenticatedUser(next).ServeHTTP(rr, req)

	require.False(t, nextCalled)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin_BlocksCustomer(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	mid := newTestMiddleware(userRepo)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req = appcontext.ContextSetAuthenticatedUser(req, &models.User{
		ID:              "user-1",
		Role:            models.UserRoleCustomer,
		EmailVerifiedAt: sql.NullTime{Time: time.Now(), Valid: true},
	})

	rr := httptest.NewRecorder()
	mid.RequireAdmin(next).ServeHTTP(rr, req)

	require.False(t, nextCalled)
	require.Equal(t, http.StatusForbidden, rr.Code)
}
