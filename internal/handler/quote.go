package handler

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/smtp"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/shamsfin/shamsi/internal/validator"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

var (
	ErrAccountNotVerified    = errors.New("only verified accounts can request financing quotes")
	ErrContractorNotApproved = errors.New("only approved contractors can respond to quotes")
	ErrQuoteNotOpen          = errors.New("this quote is no longer open for offers")
	ErrQuoteNotOffered       = errors.New("this quote has no offer to accept")
	ErrQuoteNotCancellable   = errors.New("this quote can no longer be cancelled")
	ErrProductUnavailable    = errors.New("the selected product is not available")
)

const (
	QuoteAuditRequestedAction = "quote.requested"
	QuoteAuditOfferedAction   = "quote.offered"
	QuoteAuditAcceptedAction  = "quote.accepted"
	QuoteAuditCancelledAction = "quote.cancelled"
)

// quoteTerms are the financing terms offered on the platform, in months.
var quoteTerms = []int{12, 24, 36, 48}

type QuoteResponseData struct {
	ID                    string   `json:"id"`
	Reference             string   `json:"reference"`
	ProductID             string   `json:"product_id"`
	ContractorID          *string  `json:"contractor_id"`
	InstallAddress        string   `json:"install_address"`
	InstallCity           string   `json:"install_city"`
	TermMonths            int      `json:"term_months"`
	Status                string   `json:"status"`
	TotalPriceSAR         *float64 `json:"total_price_sar"`
	MonthlyInstallmentSAR *float64 `json:"monthly_installment_sar"`
	CreatedAt             string   `json:"created_at"`
}

type QuoteHandler struct {
	QuoteRepo      repository.QuoteRepository
	ProductRepo    repository.ProductRepository
	ContractorRepo repository.ContractorRepository
	Kafka          *stream.KafkaStream
	Mailer         smtp.MailerInterface
	Helper         *helper.HelperRepository
	ErrHandler     *errHandler.ErrorRepository
}

func NewQuoteHandler(handler *QuoteHandler) *QuoteHandler {
	return &QuoteHandler{
		QuoteRepo:      handler.QuoteRepo,
		ProductRepo:    handler.ProductRepo,
		ContractorRepo: handler.ContractorRepo,
		Kafka:          handler.Kafka,
		Mailer:         handler.Mailer,
		Helper:         handler.Helper,
		ErrHandler:     handler.ErrHandler,
	}
}

// HandleCreateQuote opens a financing request against a catalog product.
// Gated on a verified account: SAMA rules do not allow offering credit to
// an account whose identity has not been confirmed.
func (h *QuoteHandler) HandleCreateQuote(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	if user.VerificationStatus != models.VerificationVerified {
		h.ErrHandler.BadRequest(w, r, ErrAccountNotVerified)
		return
	}

	var input struct {
		ProductID      string              `json:"product_id"`
		InstallAddress string              `json:"install_address"`
		InstallCity    string              `json:"install_city"`
		TermMonths     int                 `json:"term_months"`
		Validator      validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ProductID), "Product is required")
	input.Validator.Check(validator.NotBlank(input.InstallAddress), "Installation address is required")
	input.Validator.Check(validator.NotBlank(input.InstallCity), "Installation city is required")
	input.Validator.Check(slices.Contains(quoteTerms, input.TermMonths), "Term must be 12, 24, 36 or 48 months")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	product, found, err := h.ProductRepo.GetOne(input.ProductID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || !product.Active {
		h.ErrHandler.BadRequest(w, r, ErrProductUnavailable)
		return
	}

	quote := &models.Quote{
		Reference:      generateQuoteReference(),
		UserID:         user.ID,
		ProductID:      product.ID,
		InstallAddress: input.InstallAddress,
		InstallCity:    input.InstallCity,
		TermMonths:     input.TermMonths,
		Status:         models.QuoteStatusRequested,
	}

	quoteID, err := h.QuoteRepo.Insert(quote)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	quote.ID = quoteID
	quote.CreatedAt = time.Now()

	h.auditQuoteAction(user.ID, quoteID, QuoteAuditRequestedAction)

	message := "Quote requested successfully"
	err = response.JSONCreatedResponse(w, newQuoteResponse(quote), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *QuoteHandler) HandleListOwnQuotes(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	queryValues := retrieveUrlQueryValues(r)

	quotes, err := h.QuoteRepo.GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*QuoteResponseData, len(quotes))
	for i := range quotes {
		data[i] = newQuoteResponse(&quotes[i])
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *QuoteHandler) HandleSingleQuote(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	quote, ok := h.findAccessibleQuote(w, r, user)
	if !ok {
		return
	}

	message := "Data retrieved successfully"
	err := response.JSONOkResponse(w, newQuoteResponse(quote), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleOfferQuote lets an approved contractor price an open quote. The
// monthly installment is derived from the total; interest-free pricing is
// part of the product, so there is nothing else to compute.
func (h *QuoteHandler) HandleOfferQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := r.PathValue("id")
	user := context.ContextGetAuthenticatedUser(r)

	profile, found, err := h.ContractorRepo.FindByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.BadRequest(w, r, ErrContractorProfileMissing)
		return
	}
	if profile.Status != models.ContractorStatusApproved {
		h.ErrHandler.BadRequest(w, r, ErrContractorNotApproved)
		return
	}

	var input struct {
		TotalPriceSAR float64             `json:"total_price_sar"`
		Validator     validator.Validator `json:"-"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.TotalPriceSAR > 0, "Total price must be positive")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	quote, found, err := h.QuoteRepo.GetOne(quoteID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	monthly := math.Round(input.TotalPriceSAR/float64(quote.TermMonths)*100) / 100

	offered, err := h.QuoteRepo.SetOffer(quoteID, profile.ID, input.TotalPriceSAR, monthly)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !offered {
		h.ErrHandler.BadRequest(w, r, ErrQuoteNotOpen)
		return
	}

	h.auditQuoteAction(user.ID, quoteID, QuoteAuditOfferedAction)

	data := map[string]any{
		"id":                      quoteID,
		"status":                  models.QuoteStatusOffered,
		"total_price_sar":         input.TotalPriceSAR,
		"monthly_installment_sar": monthly,
	}

	message := "Offer submitted"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *QuoteHandler) HandleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	quote, ok := h.findOwnQuote(w, r, user)
	if !ok {
		return
	}

	accepted, err := h.QuoteRepo.UpdateStatus(quote.ID, models.QuoteStatusOffered, models.QuoteStatusAccepted)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !accepted {
		h.ErrHandler.BadRequest(w, r, ErrQuoteNotOffered)
		return
	}

	h.auditQuoteAction(user.ID, quote.ID, QuoteAuditAcceptedAction)

	// confirm the plan to the borrower in writing
	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Reference"] = quote.Reference
		emailData["TotalPrice"] = quote.TotalPriceSAR.Float64
		emailData["MonthlyInstallment"] = quote.MonthlyInstallmentSAR.Float64
		emailData["TermMonths"] = quote.TermMonths

		err := h.Mailer.Send(user.Email, emailData, "quote-accepted.tmpl")
		if err != nil {
			log.Printf("Error sending quote acceptance email: %v", err)
			return err
		}

		return nil
	})

	quote.Status = models.QuoteStatusAccepted

	message := "Quote accepted"
	err = response.JSONOkResponse(w, newQuoteResponse(quote), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *QuoteHandler) HandleCancelQuote(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	quote, ok := h.findOwnQuote(w, r, user)
	if !ok {
		return
	}

	if !slices.Contains([]string{models.QuoteStatusRequested, models.QuoteStatusOffered}, quote.Status) {
		h.ErrHandler.BadRequest(w, r, ErrQuoteNotCancellable)
		return
	}

	cancelled, err := h.QuoteRepo.UpdateStatus(quote.ID, quote.Status, models.QuoteStatusCancelled)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !cancelled {
		h.ErrHandler.BadRequest(w, r, ErrQuoteNotCancellable)
		return
	}

	h.auditQuoteAction(user.ID, quote.ID, QuoteAuditCancelledAction)

	quote.Status = models.QuoteStatusCancelled

	message := "Quote cancelled"
	err = response.JSONOkResponse(w, newQuoteResponse(quote), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// findOwnQuote loads the quote in the URL and enforces ownership.
func (h *QuoteHandler) findOwnQuote(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Quote, bool) {
	quoteID := r.PathValue("id")

	quote, found, err := h.QuoteRepo.GetOne(quoteID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, false
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return nil, false
	}

	if quote.UserID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return nil, false
	}

	return quote, true
}

// findAccessibleQuote is findOwnQuote relaxed for reads: the owner, the
// offering contractor, and admins can all see the quote.
func (h *QuoteHandler) findAccessibleQuote(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Quote, bool) {
	quoteID := r.PathValue("id")

	quote, found, err := h.QuoteRepo.GetOne(quoteID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, false
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return nil, false
	}

	if quote.UserID == user.ID || user.Role == models.UserRoleAdmin {
		return quote, true
	}

	if user.Role == models.UserRoleContractor && quote.ContractorID.Valid {
		profile, found, err := h.ContractorRepo.FindByUserID(user.ID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return nil, false
		}
		if found && profile.ID == quote.ContractorID.String {
			return quote, true
		}
	}

	h.ErrHandler.NotFound(w, r)
	return nil, false
}

func (h *QuoteHandler) auditQuoteAction(actorID, quoteID, action string) {
	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  actorID,
		Entity:   repository.AuditQuoteEntity,
		EntityID: quoteID,
		Action:   action,
	})
}

func newQuoteResponse(quote *models.Quote) *QuoteResponseData {
	data := &QuoteResponseData{
		ID:             quote.ID,
		Reference:      quote.Reference,
		ProductID:      quote.ProductID,
		InstallAddress: quote.InstallAddress,
		InstallCity:    quote.InstallCity,
		TermMonths:     quote.TermMonths,
		Status:         quote.Status,
		CreatedAt:      quote.CreatedAt.Format(time.RFC3339),
	}

	if quote.ContractorID.Valid {
		data.ContractorID = &quote.ContractorID.String
	}
	if quote.TotalPriceSAR.Valid {
		data.TotalPriceSAR = &quote.TotalPriceSAR.Float64
	}
	if quote.MonthlyInstallmentSAR.Valid {
		data.MonthlyInstallmentSAR = &quote.MonthlyInstallmentSAR.Float64
	}

	return data
}

func generateQuoteReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "QT-" + id[:10]
}
