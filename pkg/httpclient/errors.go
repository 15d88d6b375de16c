package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// errorEnvelope matches the failure body written by pkg/httputil.
type errorEnvelope struct {
	Success *bool  `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes a non-2xx response and converts it
// into an error. Bodies in the storefront error envelope keep their code and
// message; anything else is reported with the status and raw body.
func ParseResponseError(resp *http.Response, downstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", downstream, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success && env.Message != "" {
		return mapStatus(resp.StatusCode, env.Code, env.Message, downstream)
	}
	return fmt.Errorf("%s returned status %d: %s", downstream, resp.StatusCode, body)
}

func mapStatus(status int, code, message, downstream string) error {
	msg := fmt.Sprintf("%s: %s", downstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(downstream, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(msg)
	case status == http.StatusConflict:
		return apperrors.Conflict(msg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(msg, nil)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", downstream, status, code, message)
	default:
		return &apperrors.AppError{Code: code, Message: msg, Status: status}
	}
}

// IsClientError reports whether status is a 4xx code.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
