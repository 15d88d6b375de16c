package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/logger"
	"github.com/febluxury/storefront/pkg/validator"
)

// exposeErrors controls whether the underlying error text is returned to
// clients in the "error" field. Only enabled in development.
var exposeErrors atomic.Bool

// SetExposeErrors toggles inclusion of internal error detail in error responses.
func SetExposeErrors(v bool) {
	exposeErrors.Store(v)
}

// Payload is the body of a successful response. WriteSuccess merges it with
// the "success" flag so fields sit at the top level of the JSON object.
type Payload map[string]any

// ErrorResponse is the body of every failed response.
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true, ...payload}.
func WriteSuccess(w http.ResponseWriter, status int, payload Payload) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	WriteJSON(w, status, body)
}

// WriteError writes a standardized error response based on the error type.
// It prefers the request-scoped logger from context (set by the RequestLogger
// middleware) over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	resp := ErrorResponse{
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}
	status := http.StatusInternalServerError

	var valErr *validator.ValidationError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		resp.Code = "VALIDATION_ERROR"
		resp.Message = "request validation failed"
		resp.Fields = valErr.Fields()
	case errors.As(err, &appErr):
		status = appErr.Status
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		if appErr.Err != nil && exposeErrors.Load() {
			resp.Error = appErr.Err.Error()
		}
	default:
		status = apperrors.HTTPStatus(err)
		resp.Code = apperrors.Code(err)
		switch {
		case status >= http.StatusInternalServerError:
			resp.Code = "INTERNAL_ERROR"
			resp.Message = "an internal error occurred"
			if exposeErrors.Load() {
				resp.Error = err.Error()
			}
		case status == http.StatusBadRequest:
			resp.Message = err.Error()
		default:
			resp.Message = sentinelMessage(err)
		}
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, resp)
}

// WriteValidationError writes a 400 response for a request body that could
// not be decoded or did not pass tag validation.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_INPUT",
		Message: err.Error(),
	})
}

// sentinelMessage drops the wrapping context from a bare sentinel error so
// store internals do not reach the client.
func sentinelMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
