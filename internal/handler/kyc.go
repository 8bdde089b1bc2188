package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/file"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/shamsfin/shamsi/internal/validator"
	"github.com/shamsfin/shamsi/internal/verification"

	"github.com/jmoiron/sqlx"
	"golang.org/x/exp/slices"
)

var (
	ErrUnknownRequirement     = errors.New("unknown document requirement")
	ErrAccountAlreadyVerified = errors.New("account is already verified")
	ErrDocumentAlreadyDecided = errors.New("document has already been reviewed or replaced")
	ErrDocumentAlreadyOnFile  = errors.New("a document for this requirement is already on file")
)

const (
	DocumentAuditSubmittedAction = "document.submitted"
	DocumentAuditDecidedAction   = "document.decided"

	kycDecisionTopic = "kyc.decision"

	maxDocumentSize = 10 << 20 // 10 MB
)

// KycDecisionEvent is published on every admin decision; the notification
// worker turns it into an email to the borrower.
type KycDecisionEvent struct {
	UserID          string `json:"user_id"`
	DocumentID      string `json:"document_id"`
	RequirementCode string `json:"requirement_code"`
	Decision        string `json:"decision"`
	Note            string `json:"note"`
	AccountStatus   string `json:"account_status"`
}

type KycDocumentResponseData struct {
	ID               string  `json:"id"`
	RequirementCode  string  `json:"requirement_code"`
	RequirementTitle string  `json:"requirement_title"`
	FileURL          string  `json:"file_url"`
	Status           string  `json:"status"`
	ReviewNote       *string `json:"review_note"`
	SubmittedAt      string  `json:"submitted_at"`
}

type KycHandler struct {
	DB         repository.Database
	UserRepo   repository.UserRepository
	DocRepo    repository.KycDocumentRepository
	ReqRepo    repository.RequirementRepository
	Uploader   file.Uploader
	Kafka      *stream.KafkaStream
	ErrHandler *errHandler.ErrorRepository
}

func NewKycHandler(handler *KycHandler) *KycHandler {
	return &KycHandler{
		DB:         handler.DB,
		UserRepo:   handler.UserRepo,
		DocRepo:    handler.DocRepo,
		ReqRepo:    handler.ReqRepo,
		Uploader:   handler.Uploader,
		Kafka:      handler.Kafka,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *KycHandler) HandleListRequirements(w http.ResponseWriter, r *http.Request) {
	requirements, err := h.ReqRepo.GetAll()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	type requirementResponse struct {
		Code  string `json:"code"`
		Title string `json:"title"`
	}

	data := make([]requirementResponse, len(requirements))
	for i, req := range requirements {
		data[i] = requirementResponse{Code: req.Code, Title: req.Title}
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUploadDocument accepts a multipart form with a `file` part and a
// `requirement_code` field. A new submission supersedes any live document
// for the same requirement, which is how a rejected account re-enters the
// review queue.
func (h *KycHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	if user.VerificationStatus == models.VerificationVerified {
		h.ErrHandler.BadRequest(w, r, ErrAccountAlreadyVerified)
		return
	}

	err := r.ParseMultipartForm(maxDocumentSize)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	var v validator.Validator

	requirementCode := r.FormValue("requirement_code")
	v.Check(validator.NotBlank(requirementCode), "Requirement code is required")

	upload, header, err := r.FormFile("file")
	if err != nil {
		v.AddError("A document file is required")
	} else {
		defer upload.Close()

		ext := filepath.Ext(header.Filename)
		allowed := []string{".pdf", ".png", ".jpg", ".jpeg"}
		v.Check(slices.Contains(allowed, ext), "Document must be a PDF, PNG or JPEG file")
		v.Check(header.Size <= maxDocumentSize, "Document must be 10MB or smaller")
	}

	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}

	requirement, found, err := h.ReqRepo.FindByCode(requirementCode)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.BadRequest(w, r, ErrUnknownRequirement)
		return
	}

	// re-submission is only open to a rejected document; a submitted or
	// approved one stays the live document for its requirement
	previous, hasPrevious, err := h.DocRepo.GetLiveByRequirement(user.ID, requirement.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if hasPrevious && previous.Status != models.DocumentStatusRejected {
		h.ErrHandler.BadRequest(w, r, ErrDocumentAlreadyOnFile)
		return
	}

	// cloudinary uploads from a path, so spool the part to a temp file
	tempFile, err := os.CreateTemp("", "kyc-*"+filepath.Ext(header.Filename))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	defer os.Remove(tempFile.Name())

	_, err = io.Copy(tempFile, upload)
	tempFile.Close()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	fileURL, err := h.Uploader.UploadFile(tempFile.Name())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if hasPrevious {
		err = h.DocRepo.Supersede(previous.ID, tx)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	doc := &models.KYCDocument{
		UserID:        user.ID,
		RequirementID: requirement.ID,
		FileURL:       fileURL,
		Status:        models.DocumentStatusSubmitted,
	}

	docID, err := h.DocRepo.Insert(doc, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	docs, err := h.DocRepo.GetLiveForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// the snapshot predates this transaction: drop the superseded row and
	// add the row inserted above
	patched := docs[:0]
	for _, existing := range docs {
		if existing.RequirementID != requirement.ID {
			patched = append(patched, existing)
		}
	}
	docs = append(patched, models.KYCDocument{
		ID:            docID,
		UserID:        user.ID,
		RequirementID: requirement.ID,
		Status:        models.DocumentStatusSubmitted,
	})

	newStatus, err := h.recomputeStatusTx(user, docs, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  user.ID,
		Entity:   repository.AuditDocumentEntity,
		EntityID: docID,
		Action:   DocumentAuditSubmittedAction,
	})

	data := map[string]string{
		"id":                  docID,
		"requirement_code":    requirement.Code,
		"status":              models.DocumentStatusSubmitted,
		"verification_status": newStatus,
	}

	message := "Document submitted for review"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleListOwnDocuments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	docs, err := h.DocRepo.GetLiveForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*KycDocumentResponseData, len(docs))
	for i := range docs {
		data[i] = newKycDocumentResponse(&docs[i])
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandlePendingDocuments(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	docs, err := h.DocRepo.ListPending(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	type pendingResponse struct {
		*KycDocumentResponseData
		UserID string `json:"user_id"`
	}

	data := make([]pendingResponse, len(docs))
	for i := range docs {
		data[i] = pendingResponse{
			KycDocumentResponseData: newKycDocumentResponse(&docs[i]),
			UserID:                  docs[i].UserID,
		}
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReviewDocument records an admin decision on a submitted document
// and rolls the account's verification status forward in the same
// transaction. The borrower is notified through the kyc.decision topic.
func (h *KycHandler) HandleReviewDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	admin := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Decision  string              `json:"decision"`
		Note      string              `json:"note"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.Decision, models.DocumentStatusApproved, models.DocumentStatusRejected), "Decision must be approved or rejected")
	if input.Decision == models.DocumentStatusRejected {
		input.Validator.Check(validator.NotBlank(input.Note), "A note is required when rejecting a document")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	doc, found, err := h.DocRepo.GetOne(docID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	user, found, err := h.UserRepo.GetOne(doc.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	decided, err := h.DocRepo.Review(docID, input.Decision, input.Note, admin.ID, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !decided {
		tx.Rollback()
		h.ErrHandler.BadRequest(w, r, ErrDocumentAlreadyDecided)
		return
	}

	docs, err := h.DocRepo.GetLiveForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// the decision above is not visible outside the transaction yet
	for i := range docs {
		if docs[i].ID == docID {
			docs[i].Status = input.Decision
		}
	}

	newStatus, err := h.recomputeStatusTx(user, docs, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  admin.ID,
		Entity:   repository.AuditDocumentEntity,
		EntityID: docID,
		Action:   DocumentAuditDecidedAction + "." + input.Decision,
	})

	event := &KycDecisionEvent{
		UserID:          user.ID,
		DocumentID:      docID,
		RequirementCode: doc.RequirementCode,
		Decision:        input.Decision,
		Note:            input.Note,
		AccountStatus:   newStatus,
	}

	jsonMessage, err := json.Marshal(event)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	go h.Kafka.ProduceMessage(kycDecisionTopic, string(jsonMessage))

	data := map[string]string{
		"id":                  docID,
		"status":              input.Decision,
		"verification_status": newStatus,
	}

	message := "Decision recorded"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// recomputeStatusTx rolls the user's verification status forward inside
// the caller's transaction. Rows written earlier in the same transaction
// are not visible to the repository's own connection, so the caller passes
// the document snapshot with its pending change already applied.
func (h *KycHandler) recomputeStatusTx(user *models.User, docs []models.KYCDocument, tx *sqlx.Tx) (string, error) {
	requiredCount, err := h.ReqRepo.Count()
	if err != nil {
		return "", err
	}

	completion := verification.ProfileCompletion(user)
	newStatus := verification.ComputeStatus(user.VerificationStatus, completion, docs, requiredCount)

	if newStatus != user.VerificationStatus {
		err = h.UserRepo.SetVerificationStatus(user.ID, newStatus, tx)
		if err != nil {
			return "", err
		}
	}

	return newStatus, nil
}

func newKycDocumentResponse(doc *models.KYCDocument) *KycDocumentResponseData {
	data := &KycDocumentResponseData{
		ID:               doc.ID,
		RequirementCode:  doc.RequirementCode,
		RequirementTitle: doc.RequirementTitle,
		FileURL:          doc.FileURL,
		Status:           doc.Status,
		SubmittedAt:      doc.CreatedAt.Format(time.RFC3339),
	}

	if doc.ReviewNote.Valid {
		data.ReviewNote = &doc.ReviewNote.String
	}

	return data
}
