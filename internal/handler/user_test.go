package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUserHandler(userRepo *mocks.MockUserRepo, docRepo *mocks.MockKycDocumentRepo, reqRepo *mocks.MockRequirementRepo) (*UserHandler, *sync.WaitGroup) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	errorHandler := errHandler.New("", mailer, logger)

	baseURL := "http://localhost"
	wg := &sync.WaitGroup{}

	userHandler := NewUserHandler(&UserHandler{
		UserRepo:   userRepo,
		DocRepo:    docRepo,
		ReqRepo:    reqRepo,
		Kafka:      stream.New("localhost:9092"),
		Helper:     helper.New(&baseURL, wg, errorHandler),
		ErrHandler: errorHandler,
	})

	return userHandler, wg
}

func TestHandleUserProfile_ReportsCompletion(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	userHandler, _ := newTestUserHandler(userRepo, new(mocks.MockKycDocumentRepo), new(mocks.MockRequirementRepo))

	// names, phone and national ID only: 3 of the 8 checklist items
	user := &models.User{
		ID:          "user-1",
		FirstName:   "Abdullah",
		LastName:    "Alqahtani",
		Email:       "abdullah@example.com",
		PhoneNumber: "+966512345678",
		NationalID:  "1023456789",
	}

	req := authenticatedRequest(t, "GET", "/api/users/me", nil, user)

	rr := httptest.NewRecorder()
	userHandler.HandleUserProfile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(37), data["profile_completion"])

	checklist, ok := data["checklist"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, checklist["email_verified"])
	require.Equal(t, true, checklist["national_id"])
}

func TestHandleUpdateProfile_PersistsChecklistFields(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	docRepo := new(mocks.MockKycDocumentRepo)
	reqRepo := new(mocks.MockRequirementRepo)
	userHandler, wg := newTestUserHandler(userRepo, docRepo, reqRepo)

	userRepo.On("UpdateProfile", "user-1", mock.MatchedBy(func(u *models.User) bool {
		return u.FirstName == "Abdulrahman" && u.City.String == "Riyadh"
	})).Return(nil)
	docRepo.On("GetLiveForUser", "user-1").Return([]models.KYCDocument{}, nil)
	reqRepo.On("Count").Return(3, nil)

	user := &models.User{
		ID:                 "user-1",
		FirstName:          "Abdullah",
		LastName:           "Alqahtani",
		Email:              "abdullah@example.com",
		PhoneNumber:        "+966512345678",
		NationalID:         "1023456789",
		VerificationStatus: models.VerificationNotVerified,
		EmailVerifiedAt:    sql.NullTime{Time: time.Now(), Valid: true},
	}

	req := authenticatedRequest(t, "PUT", "/api/users/me", map[string]any{
		"first_name":         "Abdulrahman",
		"last_name":          "Alqahtani",
		"date_of_birth":      "1990-05-01",
		"city":               "Riyadh",
		"address":            "King Fahd Rd 12",
		"monthly_income_sar": 18000,
	}, user)

	rr := httptest.NewRecorder()
	userHandler.HandleUpdateProfile(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(100), data["profile_completion"])
	require.Equal(t, "Abdulrahman", data["first_name"])

	userRepo.AssertExpectations(t)
}

// A pending account whose documents were all approved before the checklist
// was complete must flip to verified the moment the profile is finished.
func TestHandleUpdateProfile_VerifiesAccountWhenDocumentsApproved(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	docRepo := new(mocks.MockKycDocumentRepo)
	reqRepo := new(mocks.MockRequirementRepo)
	userHandler, wg := newTestUserHandler(userRepo, docRepo, reqRepo)

	userRepo.On("UpdateProfile", "user-1", mock.Anything).Return(nil)
	userRepo.On("SetVerificationStatus", "user-1", models.VerificationVerified, mock.Anything).Return(nil)
	docRepo.On("GetLiveForUser", "user-1").Return([]models.KYCDocument{
		{ID: "doc-1", UserID: "user-1", Status: models.DocumentStatusApproved},
		{ID: "doc-2", UserID: "user-1", Status: models.DocumentStatusApproved},
		{ID: "doc-3", UserID: "user-1", Status: models.DocumentStatusApproved},
	}, nil)
	reqRepo.On("Count").Return(3, nil)

	user := &models.User{
		ID:                 "user-1",
		FirstName:          "Abdullah",
		LastName:           "Alqahtani",
		Email:              "abdullah@example.com",
		PhoneNumber:        "+966512345678",
		NationalID:         "1023456789",
		VerificationStatus: models.VerificationPending,
		EmailVerifiedAt:    sql.NullTime{Time: time.Now(), Valid: true},
	}

	req := authenticatedRequest(t, "PUT", "/api/users/me", map[string]any{
		"first_name":         "Abdullah",
		"last_name":          "Alqahtani",
		"date_of_birth":      "1990-05-01",
		"city":               "Riyadh",
		"address":            "King Fahd Rd 12",
		"monthly_income_sar": 18000,
	}, user)

	rr := httptest.NewRecorder()
	userHandler.HandleUpdateProfile(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, models.VerificationVerified, data["verification_status"])

	userRepo.AssertExpectations(t)
}

func TestHandleUpdateProfile_RejectsUnderageDateOfBirth(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	userHandler, _ := newTestUserHandler(userRepo, new(mocks.MockKycDocumentRepo), new(mocks.MockRequirementRepo))

	user := &models.User{
		ID:        "user-1",
		FirstName: "Abdullah",
		LastName:  "Alqahtani",
	}

	recentBirthDate := time.Now().AddDate(-16, 0, 0).Format("2006-01-02")

	req := authenticatedRequest(t, "PUT", "/api/users/me", map[string]any{
		"first_name":    "Abdullah",
		"last_name":     "Alqahtani",
		"date_of_birth": recentBirthDate,
	}, user)

	rr := httptest.NewRecorder()
	userHandler.HandleUpdateProfile(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}
