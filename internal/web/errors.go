package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message and the raw error text are written as JSON

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// respondError logs err with request context and writes a JSON error body.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	// An error the catalog does not recognise is logged as an error even
	// when the client is blamed for it.
	if statusCode >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Detail:  err.Error(),
	})
}

// readStatus picks the status for a failed query or filter-options request.
// Only invalid criteria are the client's fault; any store or engine failure,
// timeouts included, is a 500.
func readStatus(err error) int {
	if errors.Is(err, core.ErrInvalidCriteria) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// statusFor picks the response status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoRecords):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	}

	switch core.MapError(err).Code {
	case "VAL001", "VAL002", "VAL003", "FILE002":
		return http.StatusBadRequest
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "UPL005":
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
