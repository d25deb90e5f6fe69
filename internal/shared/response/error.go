package response

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"planets-engine/internal/shared/errors"
	"planets-engine/internal/sim/rules"
)

// ErrorResponse is the body of every non-2xx reply except rule rejections.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RejectionResponse is sent when a simulation command fails a game rule.
type RejectionResponse struct {
	Success bool         `json:"success"`
	Command string       `json:"command"`
	Reason  rules.Reason `json:"reason"`
}

type errorClass struct {
	status int
	level  slog.Level
	msg    string
}

var classes = map[errors.ErrorType]errorClass{
	errors.ErrorTypeNotFound:     {http.StatusNotFound, slog.LevelDebug, "Resource not found"},
	errors.ErrorTypeValidation:   {http.StatusBadRequest, slog.LevelDebug, "Validation error"},
	errors.ErrorTypeConflict:     {http.StatusConflict, slog.LevelInfo, "Conflict"},
	errors.ErrorTypeUnauthorized: {http.StatusUnauthorized, slog.LevelWarn, "Authorization error"},
	errors.ErrorTypeForbidden:    {http.StatusForbidden, slog.LevelWarn, "Authorization error"},
	errors.ErrorTypeRateLimited:  {http.StatusTooManyRequests, slog.LevelWarn, "Rate limit exceeded"},
	errors.ErrorTypeUnavailable:  {http.StatusServiceUnavailable, slog.LevelInfo, "Session host at capacity"},
	errors.ErrorTypeExternal:     {http.StatusServiceUnavailable, slog.LevelError, "External service error"},
}

var internalClass = errorClass{http.StatusInternalServerError, slog.LevelError, "Internal server error"}

// Error logs err once and writes the matching JSON reply. Handlers and
// middleware report failures only through here.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var rej *rules.Rejection
	if stderrors.As(err, &rej) {
		logger.Debug("Command rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"command", rej.Command,
			"reason", rej.Reason)
		Success(w, http.StatusConflict, RejectionResponse{Command: rej.Command, Reason: rej.Reason})
		return
	}

	errorType := errors.GetType(err)
	class, ok := classes[errorType]
	if !ok {
		class = internalClass
	}

	logger.Log(r.Context(), class.level, class.msg,
		"method", r.Method,
		"path", r.URL.Path,
		"error_type", errorType,
		"status_code", class.status,
		"error", err)

	message := err.Error()
	if class.status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, class.status, ErrorResponse{Error: string(errorType), Message: message, Code: class.status})
}

// Success writes data as JSON with the given status.
func Success(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, data)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		// The status line is already sent, so an encode failure cannot be reported.
		_ = json.NewEncoder(w).Encode(data)
	}
}
