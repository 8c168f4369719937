package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-level errors shared by repositories, services and handlers.
var (
	ErrNotFound           = errors.New("not_found")
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrInvalidTransition  = errors.New("invalid_transition")
	ErrForbidden          = errors.New("forbidden")
	ErrBookingConflict    = errors.New("booking_conflict")
	ErrActivePayment      = errors.New("active_payment_exists")
	ErrAlreadyPaid        = errors.New("already_paid")
	ErrEmailExists        = errors.New("email_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrLoginLocked        = errors.New("login_locked")
	ErrRateLimitExceeded  = errors.New("rate_limit_exceeded")
	ErrFeatureDisabled    = errors.New("feature_disabled")
	ErrExternalService    = errors.New("external_service_failure")
)

// ValidationError reports a bad input detected before any write.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// AppError carries an explicit status and code from a service to a handler.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Classify maps an error to an HTTP status, a public code and a public message.
func Classify(err error) (int, string, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, appErr.Code, appErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, ErrCodeValidation, vErr.Msg
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Record not found"
	case errors.Is(err, ErrRowVersionConflict):
		return http.StatusConflict, ErrCodeRowVersionConflict, "Record was modified by someone else, refresh and try again"
	case errors.Is(err, ErrBookingConflict):
		return http.StatusConflict, ErrCodeBookingConflict, "Amenity is already booked for that time"
	case errors.Is(err, ErrActivePayment):
		return http.StatusConflict, ErrCodeConflict, "A payment for this due is already pending or verified"
	case errors.Is(err, ErrAlreadyPaid):
		return http.StatusConflict, ErrCodeConflict, "Due is already paid"
	case errors.Is(err, ErrEmailExists):
		return http.StatusConflict, ErrCodeConflict, "Email is already registered"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity, ErrCodeInvalidTransition, "Status change not allowed from the current state"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "You are not allowed to perform this action"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password"
	case errors.Is(err, ErrAccountInactive):
		return http.StatusForbidden, ErrCodeForbidden, "Account is not active"
	case errors.Is(err, ErrLoginLocked):
		return http.StatusTooManyRequests, ErrCodeLockedAccount, "Too many failed attempts, try again later"
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Too many requests"
	case errors.Is(err, ErrFeatureDisabled):
		return http.StatusForbidden, ErrCodeForbidden, "This feature is disabled"
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway, ErrCodeExternalService, "Payment provider unavailable"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
}

// HandleError responds to any service error with the mapped JSON error.
func HandleError(w http.ResponseWriter, err error) {
	status, code, msg := Classify(err)
	RespondErrorWithCode(w, status, code, msg, nil, err)
}
