package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/shamsfin/shamsi/internal/validator"

	"golang.org/x/exp/slices"
)

var (
	ErrAlreadyContractor        = errors.New("a contractor profile already exists for this account")
	ErrInvalidStatusTransition  = errors.New("the requested status change is not allowed")
	ErrContractorProfileMissing = errors.New("no contractor profile found for this account")
)

const (
	ContractorAuditRegisteredAction    = "contractor.registered"
	ContractorAuditStatusChangedAction = "contractor.status_changed"
)

// contractorStatusEdges lists the allowed status transitions. Rejected is
// terminal; a rejected company must register a fresh profile.
var contractorStatusEdges = map[string][]string{
	models.ContractorStatusPending:   {models.ContractorStatusApproved, models.ContractorStatusRejected},
	models.ContractorStatusApproved:  {models.ContractorStatusSuspended},
	models.ContractorStatusSuspended: {models.ContractorStatusApproved},
}

type ContractorResponseData struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CompanyName string `json:"company_name"`
	CRNumber    string `json:"cr_number"`
	City        string `json:"city"`
	Services    string `json:"services"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type ContractorHandler struct {
	DB             repository.Database
	UserRepo       repository.UserRepository
	ContractorRepo repository.ContractorRepository
	Kafka          *stream.KafkaStream
	ErrHandler     *errHandler.ErrorRepository
}

func NewContractorHandler(handler *ContractorHandler) *ContractorHandler {
	return &ContractorHandler{
		DB:             handler.DB,
		UserRepo:       handler.UserRepo,
		ContractorRepo: handler.ContractorRepo,
		Kafka:          handler.Kafka,
		ErrHandler:     handler.ErrHandler,
	}
}

// HandleRegisterContractor upgrades the authenticated account into a
// contractor account. The profile starts in pending and only an admin
// approval lets the company respond to quotes.
func (h *ContractorHandler) HandleRegisterContractor(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompanyName string              `json:"company_name"`
		CRNumber    string              `json:"cr_number"`
		City        string              `json:"city"`
		Services    string              `json:"services"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	_, found, err := h.ContractorRepo.FindByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if found {
		h.ErrHandler.BadRequest(w, r, ErrAlreadyContractor)
		return
	}

	input.Validator.Check(validator.NotBlank(input.CompanyName), "Company name is required")
	input.Validator.Check(validator.MinRunes(input.CompanyName, 2), "Company name is too short")

	input.Validator.Check(validator.NotBlank(input.CRNumber), "Commercial registration number is required")
	input.Validator.Check(validator.Matches(input.CRNumber, validator.RgxCRNumber), "Commercial registration number must be 10 digits")

	input.Validator.Check(validator.NotBlank(input.City), "City is required")
	input.Validator.Check(validator.NotBlank(input.Services), "Services description is required")

	found, err = h.ContractorRepo.CheckIfCRNumberExist(input.CRNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "Commercial registration number has been registered")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
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

	profile := &models.ContractorProfile{
		UserID:      user.ID,
		CompanyName: input.CompanyName,
		CRNumber:    input.CRNumber,
		City:        input.City,
		Services:    input.Services,
		Status:      models.ContractorStatusPending,
	}

	// the role flips before the profile insert so the database trigger
	// that ties contractor profiles to contractor accounts accepts the row
	err = h.UserRepo.SetRole(user.ID, models.UserRoleContractor, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	profileID, err := h.ContractorRepo.Insert(profile, tx)
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
		Entity:   repository.AuditContractorEntity,
		EntityID: profileID,
		Action:   ContractorAuditRegisteredAction,
	})

	profile.ID = profileID
	profile.CreatedAt = time.Now()

	message := "Contractor profile submitted for approval"
	err = response.JSONCreatedResponse(w, newContractorResponse(profile), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractorHandler) HandleContractorProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	profile, found, err := h.ContractorRepo.FindByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, newContractorResponse(profile), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleContractorDirectory is the public marketplace view. Only approved
// companies are listed regardless of the requested filters.
func (h *ContractorHandler) HandleContractorDirectory(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	profiles, err := h.ContractorRepo.List(models.ContractorStatusApproved, queryValues.Search, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*ContractorResponseData, len(profiles))
	for i := range profiles {
		data[i] = newContractorResponse(&profiles[i])
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractorHandler) HandleSingleContractor(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")

	profile, found, err := h.ContractorRepo.GetOne(profileID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// a profile that is not approved does not exist as far as the public
	// directory is concerned
	if !found || profile.Status != models.ContractorStatusApproved {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, newContractorResponse(profile), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractorHandler) HandleListContractors(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	profiles, err := h.ContractorRepo.List(queryValues.Status, queryValues.Search, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*ContractorResponseData, len(profiles))
	for i := range profiles {
		data[i] = newContractorResponse(&profiles[i])
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractorHandler) HandleUpdateContractorStatus(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")
	admin := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.Status,
		models.ContractorStatusApproved,
		models.ContractorStatusRejected,
		models.ContractorStatusSuspended,
	), "Status must be approved, rejected or suspended")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	profile, found, err := h.ContractorRepo.GetOne(profileID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !slices.Contains(contractorStatusEdges[profile.Status], input.Status) {
		h.ErrHandler.BadRequest(w, r, ErrInvalidStatusTransition)
		return
	}

	updated, err := h.ContractorRepo.UpdateStatus(profileID, input.Status)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !updated {
		h.ErrHandler.NotFound(w, r)
		return
	}

	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  admin.ID,
		Entity:   repository.AuditContractorEntity,
		EntityID: profileID,
		Action:   ContractorAuditStatusChangedAction + "." + input.Status,
	})

	profile.Status = input.Status

	message := "Contractor status updated"
	err = response.JSONOkResponse(w, newContractorResponse(profile), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func newContractorResponse(profile *models.ContractorProfile) *ContractorResponseData {
	return &ContractorResponseData{
		ID:          profile.ID,
		UserID:      profile.UserID,
		CompanyName: profile.CompanyName,
		CRNumber:    profile.CRNumber,
		City:        profile.City,
		Services:    profile.Services,
		Status:      profile.Status,
		CreatedAt:   profile.CreatedAt.Format(time.RFC3339),
	}
}
