package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors are
// logged with their cause and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status := statusForError(err)
	code := services.GetErrorCode(err)
	message := "An internal server error occurred."
	var details map[string]interface{}

	if domainErr := asDomainError(err); domainErr != nil {
		if status != http.StatusInternalServerError || domainErr.Code == services.ErrAuthNotConfigured.Code {
			message = domainErr.Message
		}
		if status == http.StatusBadRequest && len(domainErr.Details) > 0 {
			details = domainErr.Details
		}
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("internal server error",
			zap.String("code", code),
			zap.Error(err))
	default:
		logger.Debug("handled service error",
			zap.Int("status", status),
			zap.String("code", code),
			zap.Error(err))
	}

	if writeErr := utils.WriteError(w, status, code, message, details); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

func statusForError(err error) int {
	switch services.GetErrorType(err) {
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeForbidden:
		return http.StatusForbidden
	case services.ErrorTypeConflict:
		return http.StatusConflict
	case services.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func asDomainError(err error) *services.DomainError {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}
