// Package errors defines the service error taxonomy used by HTTP surfaces.
package errors

import (
	"fmt"
	"net/http"
)

// ServiceError is an error with a stable code and an HTTP mapping.
type ServiceError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code, message string, status int, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Unauthorized signals a missing or rejected credential.
func Unauthorized(message string) *ServiceError {
	return newError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// InvalidToken signals a malformed or expired token.
func InvalidToken(cause error) *ServiceError {
	return newError("INVALID_TOKEN", "Invalid or expired token", http.StatusUnauthorized, cause)
}

// Forbidden signals an authenticated but unpermitted request.
func Forbidden(message string) *ServiceError {
	return newError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NotFound signals a missing resource.
func NotFound(resource string) *ServiceError {
	return newError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// InvalidInput signals a request the caller can correct.
func InvalidInput(message string) *ServiceError {
	return newError("INVALID_INPUT", message, http.StatusBadRequest, nil)
}

// ValidationFailed signals a model that did not pass validation.
func ValidationFailed(message string) *ServiceError {
	return newError("VALIDATION_FAILED", message, http.StatusUnprocessableEntity, nil)
}

// RateLimitExceeded signals the caller is over quota.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError("RATE_LIMIT_EXCEEDED", "Too many requests", http.StatusTooManyRequests, nil)
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// TranslationMissing signals an i18n lookup that exhausted its fallback chain.
func TranslationMissing(locale, key string) *ServiceError {
	e := newError("TRANSLATION_MISSING", "Translation missing", http.StatusInternalServerError, nil)
	return e.WithDetails("locale", locale).WithDetails("key", key)
}

// Internal signals an unexpected failure.
func Internal(cause error) *ServiceError {
	return newError("INTERNAL", "Internal server error", http.StatusInternalServerError, cause)
}
