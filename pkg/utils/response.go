package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeValidation         = "validation_error"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidTotp        = "invalid_totp"
	ErrCodeLockedAccount      = "locked_account"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRowVersionConflict = "row_version_conflict"
	ErrCodeBookingConflict    = "booking_conflict"
	ErrCodeInvalidTransition  = "invalid_transition"
	ErrCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrCodeExternalService    = "external_service_failure"
	ErrCodeInternal           = "internal_server_error"
)

// ErrorResponse is the body of every REST error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the gateway response shape: data carries the result on
// success and {"error": "..."} on failure.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// RespondErrorWithCode writes a JSON error. devErrs are logged, never sent.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := ErrorResponse{Code: errorCode, Message: publicMessage}
	if details != nil {
		body.Details = details
	}
	_ = json.NewEncoder(w).Encode(body)

	fields := logrus.Fields{"status": status, "code": errorCode}
	if len(devErrs) > 0 && devErrs[0] != nil {
		fields["error"] = devErrs[0].Error()
	}
	if status >= http.StatusInternalServerError {
		Logger.WithFields(fields).Error(publicMessage)
	} else {
		Logger.WithFields(fields).Debug(publicMessage)
	}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondEnvelope writes a gateway success envelope.
func RespondEnvelope(w http.ResponseWriter, data any) {
	RespondWithJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// RespondEnvelopeError writes a gateway failure envelope. The gateway always
// answers 200 for application errors; clients inspect success.
func RespondEnvelopeError(w http.ResponseWriter, message string) {
	RespondWithJSON(w, http.StatusOK, Envelope{
		Success: false,
		Data:    map[string]string{"error": message},
	})
}
