// Package apperr defines the typed failures the discount core can
// surface. The HTTP layer translates these into stable status codes and
// machine-readable error codes; anything else is an internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed application failure with a stable machine code.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	// ErrCampaignNotFound is returned when an operation references a
	// campaign id that does not exist.
	ErrCampaignNotFound = &Error{
		Code:    "CAMPAIGN_NOT_FOUND",
		Message: "campaign not found",
		Status:  http.StatusNotFound,
	}

	// ErrCodeNotAvailable is returned when a campaign's pool is empty,
	// or on reads when the user holds no code yet.
	ErrCodeNotAvailable = &Error{
		Code:    "AVAILABLE_DISCOUNT_CODE_NOT_FOUND",
		Message: "no discount code available",
		Status:  http.StatusNotFound,
	}

	// ErrCodeAlreadyAllocated is returned when a concurrent request for
	// the same (campaign, user) pair won the first-time allocation race.
	ErrCodeAlreadyAllocated = &Error{
		Code:    "DISCOUNT_CODE_ALREADY_EXISTS",
		Message: "discount code already allocated for user",
		Status:  http.StatusConflict,
	}

	// ErrValidation is returned for malformed request input.
	ErrValidation = &Error{
		Code:    "VALIDATION_FAILED",
		Message: "invalid request",
		Status:  http.StatusBadRequest,
	}

	// ErrUnauthorized is returned when the caller identity is missing
	// or unparseable.
	ErrUnauthorized = &Error{
		Code:    "INVALID_ACCESS_TOKEN",
		Message: "missing or invalid access token",
		Status:  http.StatusUnauthorized,
	}
)

// AsError unwraps err into an *Error if it carries one.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Validation builds an ErrValidation variant with a specific message.
func Validation(format string, args ...any) error {
	return &Error{
		Code:    ErrValidation.Code,
		Message: fmt.Sprintf(format, args...),
		Status:  ErrValidation.Status,
	}
}
