package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/tracking"
)

const UnexpectedErrorMessage = "An unexpected error occurred."

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteText writes a plain success message.
func WriteText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(message))
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err onto the response. Business errors keep their status and
// message. Anything else is logged, sent to error tracking, and answered with a
// generic 500; exposeDetail adds the raw error text for non-production builds.
func Error(w http.ResponseWriter, r *http.Request, err error, exposeDetail bool) {
	if appErr, ok := apperr.As(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			logger.WarnContext(r.Context(), "Request failed", "kind", appErr.Kind, "error", err)
		}
		WriteError(w, appErr.Status, appErr.Message)
		return
	}

	logger.ErrorContext(r.Context(), "Unhandled error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	tracking.CaptureError(r.Context(), err)

	body := ErrorResponse{Error: UnexpectedErrorMessage}
	if exposeDetail {
		body.Detail = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message)
}

const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst. Malformed or oversized bodies
// become a 400 business error. Unknown fields are ignored so older clients
// sending extra properties keep working.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Invalid JSON format")
	}
	return nil
}
