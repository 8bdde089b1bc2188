package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcontext "github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestKycHandler(docRepo *mocks.MockKycDocumentRepo, reqRepo *mocks.MockRequirementRepo) *KycHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return NewKycHandler(&KycHandler{
		DocRepo:    docRepo,
		ReqRepo:    reqRepo,
		ErrHandler: errHandler.New("", mailer, logger),
	})
}

// documentUploadRequest builds the multipart form the upload endpoint
// expects, with a small PNG-named payload standing in for the scan.
func documentUploadRequest(t *testing.T, user *models.User, requirementCode string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	require.NoError(t, form.WriteField("requirement_code", requirementCode))

	part, err := form.CreateFormFile("file", "national-id.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest("POST", "/api/kyc/documents", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())

	return appcontext.ContextSetAuthenticatedUser(req, user)
}

func TestHandleListOwnDocuments(t *testing.T) {
	docRepo := new(mocks.MockKycDocumentRepo)

	docRepo.On("GetLiveForUser", "user-1").Return([]models.KYCDocument{
		{
			ID:               "doc-1",
			UserID:           "user-1",
			Status:           models.DocumentStatusSubmitted,
			RequirementCode:  models.RequirementNationalIDCard,
			RequirementTitle: "National ID Card",
			FileURL:          "https://cdn.example.com/doc-1.pdf",
			CreatedAt:        time.Now(),
		},
	}, nil)

	kycHandler := newTestKycHandler(docRepo, new(mocks.MockRequirementRepo))

	user := verifiedUser()
	req := authenticatedRequest(t, "GET", "/api/kyc/documents", nil, user)

	rr := httptest.NewRecorder()
	kycHandler.HandleListOwnDocuments(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)

	doc, ok := data[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "national_id_card", doc["requirement_code"])
	require.Equal(t, "submitted", doc["status"])

	docRepo.AssertExpectations(t)
}

func TestHandleUploadDocument_VerifiedAccountIsRejected(t *testing.T) {
	docRepo := new(mocks.MockKycDocumentRepo)
	kycHandler := newTestKycHandler(docRepo, new(mocks.MockRequirementRepo))

	req := authenticatedRequest(t, "POST", "/api/kyc/documents", nil, verifiedUser())

	rr := httptest.NewRecorder()
	kycHandler.HandleUploadDocument(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "already verified")
}

// Only a rejected document may be replaced. A live submitted or approved
// document blocks another upload for the same requirement.
func TestHandleUploadDocument_RejectsReplacingApprovedDocument(t *testing.T) {
	docRepo := new(mocks.MockKycDocumentRepo)
	reqRepo := new(mocks.MockRequirementRepo)

	reqRepo.On("FindByCode", models.RequirementNationalIDCard).Return(&models.DocumentRequirement{
		ID:    "req-1",
		Code:  models.RequirementNationalIDCard,
		Title: "National ID Card",
	}, true, nil)

	docRepo.On("GetLiveByRequirement", "user-1", "req-1").Return(&models.KYCDocument{
		ID:     "doc-1",
		UserID: "user-1",
		Status: models.DocumentStatusApproved,
	}, true, nil)

	kycHandler := newTestKycHandler(docRepo, reqRepo)

	user := &models.User{
		ID:                 "user-1",
		VerificationStatus: models.VerificationPending,
	}

	rr := httptest.NewRecorder()
	kycHandler.HandleUploadDocument(rr, documentUploadRequest(t, user, models.RequirementNationalIDCard))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "already on file")

	docRepo.AssertExpectations(t)
	reqRepo.AssertExpectations(t)
}

func TestHandlePendingDocuments(t *testing.T) {
	docRepo := new(mocks.MockKycDocumentRepo)

	docRepo.On("ListPending", 10, 0).Return([]models.KYCDocument{
		{ID: "doc-1", UserID: "user-1", Status: models.DocumentStatusSubmitted, CreatedAt: time.Now()},
		{ID: "doc-2", UserID: "user-2", Status: models.DocumentStatusSubmitted, CreatedAt: time.Now()},
	}, nil)

	kycHandler := newTestKycHandler(docRepo, new(mocks.MockRequirementRepo))

	req := authenticatedRequest(t, "GET", "/api/admin/kyc/documents", nil, adminUser())

	rr := httptest.NewRecorder()
	kycHandler.HandlePendingDocuments(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)

	docRepo.AssertExpectations(t)
}
