package errHandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"runtime/debug"
	"strings"

	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/smtp"
)

type ErrorRepository struct {
	notificationEmail string
	logger            *slog.Logger
	mailer            smtp.MailerInterface
}

func New(notificationEmail string, mailer smtp.MailerInterface, logger *slog.Logger) *ErrorRepository {
	return &ErrorRepository{
		notificationEmail: notificationEmail,
		logger:            logger,
		mailer:            mailer,
	}
}

func (e *ErrorRepository) ReportServerError(r *http.Request, err error) {
	var (
		message = err.Error()
		method  string
		url     string
		trace   = string(debug.Stack())
	)

	// background tasks report with a nil request
	if r != nil {
		method = r.Method
		url = r.URL.String()
	}

	requestAttrs := slog.Group("request", "method", method, "url", url)
	e.logger.Error(message, requestAttrs, "trace", trace)

	if e.notificationEmail != "" && e.mailer != nil {
		data := map[string]any{
			"Message":       message,
			"RequestMethod": method,
			"RequestURL":    url,
			"Trace":         trace,
		}

		err := e.mailer.Send(e.notificationEmail, data, "error-notification.tmpl")
		if err != nil {
			trace = string(debug.Stack())
			e.logger.Error(err.Error(), requestAttrs, "trace", trace)
		}
	}
}

type Error struct {
	w       http.ResponseWriter
	r       *http.Request
	errors  any
	status  int
	message string
	headers http.Header
}

func (e *ErrorRepository) ErrorMessage(d *Error) {
	d.message = strings.ToUpper(d.message[:1]) + d.message[1:]

	err := response.JSONErrorResponse(d.w, d.errors, d.message, d.status, d.headers)
	if err != nil {
		e.ReportServerError(d.r, err)
		d.w.WriteHeader(http.StatusInternalServerError)
	}
}

func (e *ErrorRepository) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	e.ReportServerError(r, err)

	message := "The server encountered a problem and could not process your request"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusInternalServerError,
		message: message,
		headers: nil,
	})
}

func (e *ErrorRepository) NotFound(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource could not be found"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusNotFound,
		message: message,
		headers: nil,
	})
}

func (e *ErrorRepository) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusMethodNotAllowed,
		message: message,
		headers: nil,
	})
}

func (e *ErrorRepository) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusBadRequest,
		message: err.Error(),
		headers: nil,
	})
}

func (e *ErrorRepository) FailedValidation(w http.ResponseWriter, r *http.Request, v any) {
	message := "Validation failed"

	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnprocessableEntity,
		message: message,
		headers: nil,
		errors:  v,
	})
}

func (e *ErrorRepository) InvalidAuthenticationToken(w http.ResponseWriter, r *http.Request) {
	headers := make(http.Header)
	headers.Set("WWW-Authenticate", "Bearer")

	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnauthorized,
		message: "Invalid authentication token",
		headers: headers,
	})
}

func (e *ErrorRepository) AuthenticationRequired(w http.ResponseWriter, r *http.Request) {
	message := "You must be authenticated to access this resource"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnauthorized,
		message: message,
		headers: nil,
	})
}

func (e *ErrorRepository) AccessDenied(w http.ResponseWriter, r *http.Request) {
	message := "You do not have permission to access this resource"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusForbidden,
		message: message,
		headers: nil,
	})
}

func (e *ErrorRepository) RateLimitExceeded(w http.ResponseWriter, r *http.Request, retryAfter string) {
	headers := make(http.Header)
	headers.Set("Retry-After", retryAfter)

	message := "Too many requests, slow down"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusTooManyRequests,
		message: message,
		headers: headers,
	})
}
