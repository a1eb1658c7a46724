package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("allocating code: %w", ErrCodeNotAvailable)

	assert.ErrorIs(t, wrapped, ErrCodeNotAvailable)

	appErr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "AVAILABLE_DISCOUNT_CODE_NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestValidationCarriesMessage(t *testing.T) {
	err := Validation("discount_codes_count must be positive, got %d", -1)

	appErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "got -1")
	// A specialized validation error is not the generic sentinel.
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestAsErrorRejectsPlainErrors(t *testing.T) {
	_, ok := AsError(fmt.Errorf("driver: bad connection"))
	assert.False(t, ok)
}
