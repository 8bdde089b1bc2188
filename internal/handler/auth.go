package handler

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/shamsfin/shamsi/internal/config"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/smtp"
	"github.com/shamsfin/shamsi/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

const (
	UserAuditRegistrationAction  = "account.registered"
	UserAuditLoginAction         = "account.login"
	UserAuditFailedLoginAction   = "account.login_failed"
	UserAuditLockedAction        = "account.locked"
	UserAuditEmailVerifiedAction = "account.email_verified"
	UserAuditLogoutAction        = "account.logout"
	UserAuditPasswordResetAction = "account.password_reset"
	AdminAuditLoginAction        = "admin.login"
)

const (
	accessTokenTTL        = 1 * time.Hour
	refreshTokenTTL       = 30 * 24 * time.Hour
	verificationTokenTTL  = 24 * time.Hour
	passwordResetTokenTTL = 1 * time.Hour
)

type AuthHandler struct {
	DB           repository.Database
	UserRepo     repository.UserRepository
	SessionRepo  repository.SessionRepository
	TokenRepo    repository.VerificationTokenRepository
	AuditRepo    repository.AuditRepository
	Helper       *helper.HelperRepository
	Mailer       smtp.MailerInterface
	Config       *config.Config
	ErrHandler   *errHandler.ErrorRepository
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		DB:          handler.DB,
		UserRepo:    handler.UserRepo,
		SessionRepo: handler.SessionRepo,
		TokenRepo:   handler.TokenRepo,
		AuditRepo:   handler.AuditRepo,
		Helper:      handler.Helper,
		Mailer:      handler.Mailer,
		Config:      handler.Config,
		ErrHandler:  handler.ErrHandler,
	}
}

// Registration validates the input, checks the unique fields (email, phone,
// national ID), then inserts the user and their email verification token in
// one transaction. The audit entry and the verification email go out as
// background tasks once the transaction has committed.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		PhoneNumber string              `json:"phone_number"`
		NationalID  string              `json:"national_id"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// password strength first; there is no point validating the rest of the
	// form when the password would be rejected anyway
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(!found, "Email is already in use")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(len(input.FirstName) >= 2, "First name is too short")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(len(input.LastName) >= 2, "Last name is too short")

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number must be a Saudi mobile number in international format")

	input.Validator.Check(validator.NotBlank(input.NationalID), "National ID is required")
	input.Validator.Check(validator.Matches(input.NationalID, validator.RgxNationalID), "National ID must be 10 digits starting with 1 or 2")

	found, err = h.UserRepo.CheckIfPhoneNumberExist(input.PhoneNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "Phone number has been registered")

	found, err = h.UserRepo.CheckIfNationalIDExist(input.NationalID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "National ID has been registered")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
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

	createdUser := &models.User{
		Role:           models.UserRoleCustomer,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		NationalID:     input.NationalID,
		HashedPassword: hashedPassword,
	}

	userID, err := h.UserRepo.Insert(createdUser, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	plainToken, hashedToken, err := generateOpaqueToken()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.TokenRepo.Insert(&models.VerificationToken{
		UserID:      userID,
		HashedToken: hashedToken,
		Purpose:     models.TokenPurposeEmailVerification,
		ExpiresAt:   time.Now().Add(verificationTokenTTL),
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.AuditRepo.Insert(&models.AuditLog{
			ActorID:  userID,
			Entity:   repository.AuditUserEntity,
			EntityId: userID,
			Action:   UserAuditRegistrationAction,
		})

		if err != nil {
			log.Printf("Error logging user registration action: %v", err)
			return err
		}

		return nil
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = createdUser.FirstName + " " + createdUser.LastName
		emailData["Token"] = plainToken

		err := h.Mailer.Send(createdUser.Email, emailData, "welcome.tmpl")
		if err != nil {
			log.Printf("Error sending verification email: %v", err)
			return err
		}

		return nil
	})

	message := "Account created successfully. Please verify your email address"

	err = response.JSONCreatedResponse(w, nil, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token     string              `json:"token"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Token), "Token is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	token, found, err := h.TokenRepo.Consume(hashToken(input.Token), models.TokenPurposeEmailVerification)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		message := "Verification link is invalid or has expired"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	err = h.UserRepo.SetEmailVerified(token.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.AuditRepo.Insert(&models.AuditLog{
			ActorID:  token.UserID,
			Entity:   repository.AuditUserEntity,
			EntityId: token.UserID,
			Action:   UserAuditEmailVerifiedAction,
		})

		if err != nil {
			log.Printf("Error logging email verification action: %v", err)
			return err
		}

		return nil
	})

	message := "Email verified successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, false)
}

// HandleAdminAuthLogin is the same credential flow restricted to admin
// accounts. Successful admin access is audit-logged separately because
// compliance reviews ask for it.
func (h *AuthHandler) HandleAdminAuthLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, true)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(found, "Incorrect email/password")

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
		input.Validator.Check(passwordMatches, "Incorrect email/password")

		if !passwordMatches {
			h.Helper.BackgroundTask(r, func() error {
				_, err := h.AuditRepo.Insert(&models.AuditLog{
					ActorID:  user.ID,
					Entity:   repository.AuditUserEntity,
					EntityId: user.ID,
					Action:   UserAuditFailedLoginAction,
				})

				if err != nil {
					log.Printf("Error logging failed login action: %v", err)
					return err
				}

				return nil
			})

			// lock the account after 3 consecutive failed attempts;
			// we check for 2 previous failures before this one
			count := h.AuditRepo.CountConsecutiveFailedLoginAttempts(user.ID, UserAuditFailedLoginAction)
			if count >= 2 {
				h.Helper.BackgroundTask(r, func() error {
					err := h.UserRepo.Lock(user.ID)

					if err != nil {
						log.Printf("Error locking account after failed logins: %v", err)
						return err
					}

					return nil
				})

				h.Helper.BackgroundTask(r, func() error {
					_, err := h.AuditRepo.Insert(&models.AuditLog{
						ActorID:  user.ID,
						Entity:   repository.AuditUserEntity,
						EntityId: user.ID,
						Action:   UserAuditLockedAction,
					})

					if err != nil {
						log.Printf("Error logging account lock action: %v", err)
						return err
					}

					return nil
				})

				h.ErrHandler.FailedValidation(w, r, []string{"Account has been locked. Please contact support"})
				return
			}
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if user.Status != repository.UserAccountActiveStatus {
		message := "Account has been locked. Please contact support"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	if adminOnly && user.Role != models.UserRoleAdmin {
		h.ErrHandler.AccessDenied(w, r)
		return
	}

	loginAction := UserAuditLoginAction
	if adminOnly {
		loginAction = AdminAuditLoginAction
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.AuditRepo.Insert(&models.AuditLog{
			ActorID:  user.ID,
			Entity:   repository.AuditUserEntity,
			EntityId: user.ID,
			Action:   loginAction,
		})

		if err != nil {
			log.Printf("Error logging successful login action: %v", err)
			return err
		}

		return nil
	})

	data, err := h.generateTokenPair(user)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string              `json:"refresh_token"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.RefreshToken), "Refresh token is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	session, found, err := h.SessionRepo.FindActiveByHashedToken(hashToken(input.RefreshToken))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.InvalidAuthenticationToken(w, r)
		return
	}

	user, found, err := h.UserRepo.GetOne(session.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found || user.Status != repository.UserAccountActiveStatus {
		h.ErrHandler.InvalidAuthenticationToken(w, r)
		return
	}

	// rotation: the presented token dies with this request
	err = h.SessionRepo.Revoke(session.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data, err := h.generateTokenPair(user)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Token refreshed"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogout(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string              `json:"refresh_token"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.RefreshToken), "Refresh token is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	session, found, err := h.SessionRepo.FindActiveByHashedToken(hashToken(input.RefreshToken))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if found {
		err = h.SessionRepo.Revoke(session.ID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		h.Helper.BackgroundTask(r, func() error {
			_, err := h.AuditRepo.Insert(&models.AuditLog{
				ActorID:  session.UserID,
				Entity:   repository.AuditUserEntity,
				EntityId: session.UserID,
				Action:   UserAuditLogoutAction,
			})

			if err != nil {
				log.Printf("Error logging logout action: %v", err)
				return err
			}

			return nil
		})
	}

	message := "Logged out"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleForgotPassword issues a password reset token. The response is the
// same whether or not the email is registered, so the route cannot be used
// to probe for accounts.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if found {
		plainToken, hashedToken, err := generateOpaqueToken()
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		err = h.TokenRepo.Insert(&models.VerificationToken{
			UserID:      user.ID,
			HashedToken: hashedToken,
			Purpose:     models.TokenPurposePasswordReset,
			ExpiresAt:   time.Now().Add(passwordResetTokenTTL),
		}, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		h.Helper.BackgroundTask(r, func() error {
			emailData := h.Helper.NewEmailData()
			emailData["Name"] = user.FirstName + " " + user.LastName
			emailData["Token"] = plainToken

			err := h.Mailer.Send(user.Email, emailData, "password-reset.tmpl")
			if err != nil {
				log.Printf("Error sending password reset email: %v", err)
				return err
			}

			return nil
		})
	}

	message := "If the email is registered, a password reset link has been sent"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token     string              `json:"token"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Token), "Token is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	token, found, err := h.TokenRepo.Consume(hashToken(input.Token), models.TokenPurposePasswordReset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		message := "Reset link is invalid or has expired"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.UserRepo.UpdatePassword(token.UserID, hashedPassword)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// every open session dies with the old password
	err = h.SessionRepo.RevokeAllForUser(token.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.AuditRepo.Insert(&models.AuditLog{
			ActorID:  token.UserID,
			Entity:   repository.AuditUserEntity,
			EntityId: token.UserID,
			Action:   UserAuditPasswordResetAction,
		})

		if err != nil {
			log.Printf("Error logging password reset action: %v", err)
			return err
		}

		return nil
	})

	message := "Password reset successfully. Please log in again"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// generateTokenPair mints the access JWT and a fresh refresh session for
// the user and returns the response payload for the login/refresh routes.
func (h *AuthHandler) generateTokenPair(user *models.User) (map[string]string, error) {
	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(accessTokenTTL)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		return nil, err
	}

	plainRefresh, hashedRefresh, err := generateOpaqueToken()
	if err != nil {
		return nil, err
	}

	_, err = h.SessionRepo.Insert(&models.Session{
		UserID:      user.ID,
		HashedToken: hashedRefresh,
		ExpiresAt:   time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"auth_token":    string(jwtBytes),
		"token_expiry":  expiry.Format(time.RFC3339),
		"refresh_token": plainRefresh,
	}, nil
}

// generateOpaqueToken returns a random token and its sha256 hex digest.
// Only the digest is stored; a database leak exposes nothing usable.
func generateOpaqueToken() (plain string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}

	plain = hex.EncodeToString(buf)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
