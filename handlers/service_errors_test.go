package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:            "missing identity token",
			err:             services.ErrMissingIdentityToken,
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "missing_identity_token",
			expectedMessage: "Google ID token is missing.",
		},
		{
			name:            "invalid identity token",
			err:             services.ErrInvalidIdentityToken.Wrap(errors.New("bad audience")),
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    "invalid_identity_token",
			expectedMessage: "Invalid Google ID token.",
		},
		{
			name:            "unknown user",
			err:             services.ErrUnauthorized,
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    "unauthorized",
			expectedMessage: "User not found or token invalid.",
		},
		{
			name:            "read only task update",
			err:             services.ErrReadOnlyTaskUpdate,
			expectedStatus:  http.StatusForbidden,
			expectedCode:    "read_only_task_update",
			expectedMessage: "Read Only users can only update task status.",
		},
		{
			name:            "not found",
			err:             services.ErrTaskNotFound,
			expectedStatus:  http.StatusNotFound,
			expectedCode:    "task_not_found",
			expectedMessage: "Task not found.",
		},
		{
			name:            "identity conflict",
			err:             services.ErrIdentityConflict,
			expectedStatus:  http.StatusConflict,
			expectedCode:    "identity_conflict",
			expectedMessage: "Email is already linked to a different Google account.",
		},
		{
			name:            "rate limited",
			err:             services.ErrRateLimitExceeded,
			expectedStatus:  http.StatusTooManyRequests,
			expectedCode:    "rate_limited",
			expectedMessage: "Too many requests. Please try again later.",
		},
		{
			name:            "misconfiguration keeps its message",
			err:             services.ErrAuthNotConfigured,
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "server_misconfigured",
			expectedMessage: "Server configuration error.",
		},
		{
			name:            "internal error hides cause",
			err:             services.ErrInternal.Wrap(errors.New("pq: connection refused")),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "internal_error",
			expectedMessage: "An internal server error occurred.",
		},
		{
			name:            "plain error is internal",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "internal_error",
			expectedMessage: "An internal server error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			HandleServiceError(rec, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeErrorBody(t, rec)
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.Equal(t, tt.expectedMessage, body.Error)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestHandleServiceError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := services.NewValidationError("name is required").WithDetail("field", "name")

	HandleServiceError(rec, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, "name is required", body.Error)
	assert.Equal(t, "name", body.Details["field"])
}

func TestHandleServiceError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, nil, zap.NewNop())
	assert.Equal(t, 0, rec.Body.Len())
}
