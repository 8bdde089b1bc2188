package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/shamsfin/shamsi/internal/validator"
	"github.com/shamsfin/shamsi/internal/verification"
)

const UserAuditProfileUpdateAction = "account.profile_updated"

type UserProfileResponseData struct {
	ID                 string          `json:"id"`
	Role               string          `json:"role"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	PhoneNumber        string          `json:"phone_number"`
	NationalID         string          `json:"national_id"`
	VerificationStatus string          `json:"verification_status"`
	DateOfBirth        *string         `json:"date_of_birth"`
	City               *string         `json:"city"`
	Address            *string         `json:"address"`
	Employer           *string         `json:"employer"`
	MonthlyIncomeSAR   *float64        `json:"monthly_income_sar"`
	EmailVerified      bool            `json:"email_verified"`
	ProfileCompletion  int             `json:"profile_completion"`
	Checklist          map[string]bool `json:"checklist"`
	CreatedAt          string          `json:"created_at"`
}

type UserHandler struct {
	UserRepo   repository.UserRepository
	DocRepo    repository.KycDocumentRepository
	ReqRepo    repository.RequirementRepository
	Kafka      *stream.KafkaStream
	Helper     *helper.HelperRepository
	ErrHandler *errHandler.ErrorRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		UserRepo:   handler.UserRepo,
		DocRepo:    handler.DocRepo,
		ReqRepo:    handler.ReqRepo,
		Kafka:      handler.Kafka,
		Helper:     handler.Helper,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *UserHandler) HandleUserProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	message := "Profile retrieved successfully"

	err := response.JSONOkResponse(w, newUserProfileResponse(user), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// Profile update only touches the optional checklist fields; identity
// fields (email, phone, national ID) are fixed at registration.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName        string              `json:"first_name"`
		LastName         string              `json:"last_name"`
		DateOfBirth      string              `json:"date_of_birth"`
		City             string              `json:"city"`
		Address          string              `json:"address"`
		Employer         string              `json:"employer"`
		MonthlyIncomeSAR float64             `json:"monthly_income_sar"`
		Validator        validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(input.MonthlyIncomeSAR >= 0, "Monthly income cannot be negative")

	var dateOfBirth sql.NullTime
	if input.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			input.Validator.AddError("Date of birth must be in YYYY-MM-DD format")
		} else {
			input.Validator.Check(parsed.Before(time.Now().AddDate(-18, 0, 0)), "You must be at least 18 years old")
			dateOfBirth = sql.NullTime{Time: parsed, Valid: true}
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.DateOfBirth = dateOfBirth
	user.City = nullString(input.City)
	user.Address = nullString(input.Address)
	user.Employer = nullString(input.Employer)

	if input.MonthlyIncomeSAR > 0 {
		user.MonthlyIncomeSAR = sql.NullFloat64{Float64: input.MonthlyIncomeSAR, Valid: true}
	} else {
		user.MonthlyIncomeSAR = sql.NullFloat64{}
	}

	err = h.UserRepo.UpdateProfile(user.ID, user)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// completing the checklist can be the last step towards verification
	// when every required document has already been approved
	err = h.recomputeStatus(user)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  user.ID,
		Entity:   repository.AuditUserEntity,
		EntityID: user.ID,
		Action:   UserAuditProfileUpdateAction,
	})

	message := "Profile updated successfully"

	err = response.JSONOkResponse(w, newUserProfileResponse(user), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// recomputeStatus rolls the verification status forward after a profile
// change and patches the user struct so the response shows the new status.
func (h *UserHandler) recomputeStatus(user *models.User) error {
	docs, err := h.DocRepo.GetLiveForUser(user.ID)
	if err != nil {
		return err
	}

	requiredCount, err := h.ReqRepo.Count()
	if err != nil {
		return err
	}

	completion := verification.ProfileCompletion(user)
	newStatus := verification.ComputeStatus(user.VerificationStatus, completion, docs, requiredCount)

	if newStatus != user.VerificationStatus {
		err = h.UserRepo.SetVerificationStatus(user.ID, newStatus, nil)
		if err != nil {
			return err
		}
		user.VerificationStatus = newStatus
	}

	return nil
}

func newUserProfileResponse(user *models.User) *UserProfileResponseData {
	data := &UserProfileResponseData{
		ID:                 user.ID,
		Role:               user.Role,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Email:              user.Email,
		PhoneNumber:        user.PhoneNumber,
		NationalID:         user.NationalID,
		VerificationStatus: user.VerificationStatus,
		EmailVerified:      user.EmailVerifiedAt.Valid,
		ProfileCompletion:  verification.ProfileCompletion(user),
		Checklist:          verification.Checklist(user),
		CreatedAt:          user.CreatedAt.Format(time.RFC3339),
	}

	if user.DateOfBirth.Valid {
		dob := user.DateOfBirth.Time.Format("2006-01-02")
		data.DateOfBirth = &dob
	}
	if user.City.Valid {
		data.City = &user.City.String
	}
	if user.Address.Valid {
		data.Address = &user.Address.String
	}
	if user.Employer.Valid {
		data.Employer = &user.Employer.String
	}
	if user.MonthlyIncomeSAR.Valid {
		data.MonthlyIncomeSAR = &user.MonthlyIncomeSAR.Float64
	}

	return data
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
