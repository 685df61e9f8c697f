package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/service/auth"
	"github.com/ascend-study/ascend-api/internal/service/economy"
	"github.com/ascend-study/ascend-api/internal/service/review"
	"github.com/ascend-study/ascend-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, review.ErrTopicNotOwned),
		errors.Is(err, economy.ErrTopicNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, review.ErrTopicNotFound),
		errors.Is(err, economy.ErrTopicNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the pipeline state no longer allows the request.
	// Clients resolve these by refreshing and retrying their intent.
	case errors.Is(err, review.ErrStaleColumn),
		errors.Is(err, review.ErrInvalidTransition),
		errors.Is(err, economy.ErrAlreadyMastered),
		errors.Is(err, store.ErrConcurrencyConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// The request was well-formed but the wallet cannot pay.
	case errors.Is(err, economy.ErrInsufficientGems):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, review.ErrInvalidScore),
		errors.Is(err, economy.ErrInvalidGemAmount),
		errors.Is(err, economy.ErrUnknownGemKind),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, review.ErrTopicNotOwned),
		errors.Is(err, economy.ErrTopicNotOwned):
		return "You do not own this topic"

	case errors.Is(err, review.ErrTopicNotFound),
		errors.Is(err, economy.ErrTopicNotFound):
		return "Topic not found"

	case errors.Is(err, review.ErrStaleColumn):
		return "Topic moved since it was loaded"

	case errors.Is(err, review.ErrInvalidTransition):
		return "Topic is not in a state that allows this action"

	case errors.Is(err, economy.ErrAlreadyMastered):
		return "Topic is already mastered"

	case errors.Is(err, economy.ErrInsufficientGems):
		return "Insufficient gem balance"

	case errors.Is(err, review.ErrInvalidScore):
		return "Understanding score must be between 1 and 5"

	case errors.Is(err, economy.ErrInvalidGemAmount):
		return "Gem amount must be positive"

	case errors.Is(err, economy.ErrUnknownGemKind):
		return "Unknown gem kind"

	case errors.Is(err, store.ErrConcurrencyConflict):
		return "Conflicting update in progress, please retry"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes an error response using the standard status and
// message mapping. A non-empty defaultMessage overrides the mapped message
// for internal errors, letting handlers give operation-specific wording
// without leaking details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMessage string) {
	statusCode := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if defaultMessage != "" && statusCode == http.StatusInternalServerError {
		message = defaultMessage
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Validator errors look like:
	// "Key: 'Req.Score' Error:Field validation for 'Score' failed on the 'min' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return "Invalid " + field + ": " + getValidationTagMessage(tag)
				}
				return "Invalid " + field
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
