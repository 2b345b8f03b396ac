// Package response writes the bridge's JSON envelope for handlers that run
// outside Huma: router fallbacks and the event stream.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
)

// Version is the envelope version carried in the "v" field.
const Version = 1

// Envelope is a successful response.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is a coded failure.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data wrapped in an Envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: status < 400,
		Data:    data,
	}, logger)
}

// Success writes a 200 envelope.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an ErrorEnvelope whose code is derived from status.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, ErrorEnvelope{
		Version: Version,
		Code:    string(CodeForStatus(status)),
		Message: message,
	}, logger)
}

// FromError writes err as an ErrorEnvelope. Domain errors keep their code
// and status; anything else is a 500 with a generic message.
func FromError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		if logger != nil {
			logger.Error("unhandled error", slog.String("error", err.Error()))
		}
		Error(w, http.StatusInternalServerError, "unexpected error occurred", logger)
		return
	}
	write(w, domainErr.HTTPStatus(), ErrorEnvelope{
		Version: Version,
		Code:    string(domainErr.Code),
		Message: domainerrors.UserMessage(err, domainErr.Message),
		Details: domainErr.Details,
	}, logger)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// MethodNotAllowed writes a 405.
func MethodNotAllowed(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed", logger)
}

// CodeForStatus maps an HTTP status to a domain error code.
func CodeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusMethodNotAllowed:
		return domainerrors.CodeBadRequest
	default:
		return domainerrors.CodeInternal
	}
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	// json/v2 MarshalWrite doesn't add a newline, but that's fine for HTTP responses.
	if err := json.MarshalWrite(w, body); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}
