package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/febluxury/storefront/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func envelope(code, message string) string {
	return `{"success":false,"code":"` + code + `","message":"` + message + `"}`
}

func TestParseResponseError_Envelope(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		sentinel   error
	}{
		{"not found", http.StatusNotFound, http.StatusNotFound, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, http.StatusBadRequest, apperrors.ErrInvalidInput},
		// Downstream validation failures surface as the storefront's own 400.
		{"unprocessable", http.StatusUnprocessableEntity, http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, http.StatusConflict, apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, http.StatusForbidden, apperrors.ErrForbidden},
		{"unavailable", http.StatusServiceUnavailable, http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, envelope("X", "relay said no")), "mail-relay")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, appErr.Status)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_ServerErrorKeepsCode(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadGateway, envelope("UPSTREAM", "smtp down")), "mail-relay")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "502/UPSTREAM")
	assert.Contains(t, err.Error(), "smtp down")
}

func TestParseResponseError_UnknownStatusKeepsCode(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTooManyRequests, envelope("RATE_LIMITED", "slow down")), "mail-relay")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "mail-relay: slow down", appErr.Message)
}

func TestParseResponseError_Unstructured(t *testing.T) {
	for _, body := range []string{"", "<html>oops</html>", `{"success":true}`, `{"error":"x"}`} {
		err := ParseResponseError(makeResponse(http.StatusInternalServerError, body), "mail-relay")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail-relay returned status 500")
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(399))
	assert.False(t, IsClientError(500))
}
