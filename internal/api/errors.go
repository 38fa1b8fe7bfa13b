package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/gateway"
	"github.com/irislabs/iris-api/internal/platform/ollama"
	"github.com/irislabs/iris-api/internal/service"
	"github.com/irislabs/iris-api/internal/service/auth"
	"github.com/irislabs/iris-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var transportErr *ollama.TransportError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrAnalysisNotFound),
		errors.Is(err, service.ErrAnalysisNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Admission control: the queue rejected the request at submit time.
	case errors.Is(err, gateway.ErrQueueFull):
		return http.StatusTooManyRequests

	// Upstream inference service is unavailable or overloaded.
	case errors.Is(err, gateway.ErrQueueTimeout),
		errors.Is(err, gateway.ErrShuttingDown),
		errors.Is(err, ollama.ErrServiceUnavailable),
		errors.Is(err, ollama.ErrModelNotReady):
		return http.StatusServiceUnavailable

	// Upstream answered but the exchange failed.
	case errors.As(err, &transportErr),
		errors.Is(err, ollama.ErrMalformedResponse):
		return http.StatusBadGateway

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var transportErr *ollama.TransportError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this analysis"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrAnalysisNotFound),
		errors.Is(err, service.ErrAnalysisNotFound):
		return "Analysis not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	// Gateway and inference errors. Clients display these verbatim, so the
	// wording is part of the API contract.
	case errors.Is(err, gateway.ErrQueueFull):
		return "Request queue is full. Please try again later."

	case errors.Is(err, gateway.ErrQueueTimeout):
		return "Request timed out waiting for an available slot. Please try again."

	case errors.Is(err, gateway.ErrShuttingDown):
		return "The service is shutting down. Please try again later."

	case errors.Is(err, ollama.ErrServiceUnavailable):
		return "The AI service is not available. Please try again later."

	case errors.Is(err, ollama.ErrModelNotReady):
		return "The AI model is not ready. Please try again later."

	case errors.As(err, &transportErr):
		// TransportError carries its own user-facing message per failure kind.
		return transportErr.Message

	case errors.Is(err, ollama.ErrMalformedResponse):
		return "The AI service returned an unexpected response."

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Email' Error:Field validation for
	// 'Email' failed on the 'required' tag"
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
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages.
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "base64":
		return "must be base64-encoded"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
