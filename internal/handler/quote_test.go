package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	appcontext "github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestQuoteHandler(quoteRepo *mocks.MockQuoteRepo, productRepo *mocks.MockProductRepo, contractorRepo *mocks.MockContractorRepo, mailer *mocks.MockMailer) (*QuoteHandler, *sync.WaitGroup) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := errHandler.New("", mailer, logger)

	baseURL := "http://localhost"
	wg := &sync.WaitGroup{}
	helperRepo := helper.New(&baseURL, wg, errorHandler)

	quoteHandler := NewQuoteHandler(&QuoteHandler{
		QuoteRepo:      quoteRepo,
		ProductRepo:    productRepo,
		ContractorRepo: contractorRepo,
		Kafka:          stream.New("localhost:9092"),
		Mailer:         mailer,
		Helper:         helperRepo,
		ErrHandler:     errorHandler,
	})

	return quoteHandler, wg
}

func verifiedUser() *models.User {
	return &models.User{
		ID:                 "user-1",
		Role:               models.UserRoleCustomer,
		FirstName:          "Abdullah",
		LastName:           "Alqahtani",
		Email:              "abdullah@example.com",
		VerificationStatus: models.VerificationVerified,
	}
}

func authenticatedRequest(t *testing.T, method, target string, body any, user *models.User) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return appcontext.ContextSetAuthenticatedUser(req, user)
}

func TestHandleCreateQuote_VerifiedUser(t *testing.T) {
	quoteRepo := new(mocks.MockQuoteRepo)
	productRepo := new(mocks.MockProductRepo)
	contractorRepo := new(mocks.MockContractorRepo)
	mailer := new(mocks.MockMailer)

	productRepo.On("GetOne", "product-1").Return(&models.Product{
		ID:       "product-1",
		Name:     "Villa 10kW",
		Active:   true,
		PriceSAR: 39500,
	}, true, nil)

	quoteRepo.On("Insert", mock.Anything).Return("quote-1", nil)

	quoteHandler, wg := newTestQuoteHandler(quoteRepo, productRepo, contractorRepo, mailer)

	req := authenticatedRequest(t, "POST", "/api/quotes", map[string]any{
		"product_id":      "product-1",
		"install_address": "King Fahd Rd 12",
		"install_city":    "Riyadh",
		"term_months":     24,
	}, verifiedUser())

	rr := httptest.NewRecorder()
	quoteHandler.HandleCreateQuote(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusCreated, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "requested", data["status"])

	reference, ok := data["reference"].(string)
	require.True(t, ok)
	require.Regexp(t, `^QT-[0-9A-F]{10}$`, reference)

	quoteRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestHandleCreateQuote_UnverifiedUser(t *testing.T) {
	quoteRepo := new(mocks.MockQuoteRepo)
	productRepo := new(mocks.MockProductRepo)
	contractorRepo := new(mocks.MockContractorRepo)
	mailer := new(mocks.MockMailer)

	quoteHandler, wg := newTestQuoteHandler(quoteRepo, productRepo, contractorRepo, mailer)

	user := verifiedUser()
	user.VerificationStatus = models.VerificationPending

	req := authenticatedRequest(t, "POST", "/api/quotes", map[string]any{
		"product_id":      "product-1",
		"install_address": "King Fahd Rd 12",
		"install_city":    "Riyadh",
		"term_months":     24,
	}, user)

	rr := httptest.NewRecorder()
	quoteHandler.HandleCreateQuote(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusBadRequest, rr.Code)
	quoteRepo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleCreateQuote_RejectsUnsupportedTerm(t *testing.T) {
	quoteRepo := new(mocks.MockQuoteRepo)
	productRepo := new(mocks.MockProductRepo)
	contractorRepo := new(mocks.MockContractorRepo)
	mailer := new(mocks.MockMailer)

	quoteHandler, wg := newTestQuoteHandler(quoteRepo, productRepo, contractorRepo, mailer)

	req := authenticatedRequest(t, "POST", "/api/quotes", map[string]any{
		"product_id":      "product-1",
		"install_address": "King Fahd Rd 12",
		"install_city":    "Riyadh",
		"term_months":     18,
	}, verifiedUser())

	rr := httptest.NewRecorder()
	quoteHandler.HandleCreateQuote(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	quoteRepo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleOfferQuote_ApprovedContractor(t *testing.T) {
	quoteRepo := new(mocks.MockQuoteRepo)
	productRepo := new(mocks.MockProductRepo)
	contractorRepo := new(mocks.MockContractorRepo)
	mailer := new(mocks.MockMailer)

	contractorRepo.On("FindByUserID", "contractor-user-1").Return(&models.ContractorProfile{
		ID:     "profile-1",
		UserID: "contractor-user-1",
		Status: models.ContractorStatusApproved,
	}, true, nil)

	quoteRepo.On("GetOne", "quote-1").Return(&models.Quote{
		ID:         "quote-1",
		UserID:     "user-1",
		TermMonths: 24,
		Status:     models.QuoteStatusRequested,
	}, true, nil)

	// 40000 over 24 months
	quoteRepo.On("SetOffer", "quote-1", "profile-1", 40000.0, 1666.67).Return(true, nil)

	quoteHandler, wg := newTestQuoteHandler(quoteRepo, productRepo, contractorRepo, mailer)

	contractorUser := &models.User{
		ID:                 "contractor-user-1",
		Role:               models.UserRoleContractor,
		VerificationStatus: models.VerificationVerified,
	}

	req := authenticatedRequest(t, "PUT", "/api/quotes/quote-1/offer", map[string]any{
		"total_price_sar": 40000,
	}, contractorUser)
	req.SetPathValue("id", "quote-1")

	rr := httptest.NewRecorder()
	quoteHandler.HandleOfferQuote(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	quoteRepo.AssertExpectations(t)
	contractorRepo.AssertExpectations(t)
}

func TestHandleAcceptQuote_SendsConfirmationEmail(t *testing.T) {
	quoteRepo := new(mocks.MockQuoteRepo)
	productRepo := new(mocks.MockProductRepo)
	contractorRepo := new(mocks.MockContractorRepo)
	mailer := new(mocks.MockMailer)

	user := verifiedUser()

	quoteRepo.On("GetOne", "quote-1").Return(&models.Quote{
		ID:                    "quote-1",
		Reference:             "QT-ABCDEF1234",
		UserID:                user.ID,
		TermMonths:            24,
		Status:                models.QuoteStatusOffered,
		ContractorID:          sql.NullString{String: "profile-1", Valid: true},
		TotalPriceSAR:         sql.NullFloat64{Float64: 40000, Valid: true},
		MonthlyInstallmentSAR: sql.NullFloat64{Float64: 1666.67, Valid: true},
	}, true, nil)

	quoteRepo.On("UpdateStatus", "quote-1", models.QuoteStatusOffered, models.QuoteStatusAccepted).Return(true, nil)

	mailer.On("Send", user.Email, mock.Anything, []string{"quote-accepted.tmpl"}).Return(nil)

	quoteHandler, wg := newTestQuoteHandler(quoteRepo, productRepo, contractorRepo, mailer)

	req := authenticatedRequest(t, "PUT", "/api/quotes/quote-1/accept", nil, user)
	req.SetPathValue("id", "quote-1")

	rr := httptest.NewRecorder()
	quoteHandler.HandleAcceptQuote(rr, req)

	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)

	quoteRepo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}
