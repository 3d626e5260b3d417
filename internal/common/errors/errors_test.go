package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError("save users", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "STORAGE_ERROR")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "save users", err.Details["operation"])
}

func TestAsAppErrorThroughFmtWrap(t *testing.T) {
	inner := NewValidationError("count", "must not be negative")
	wrapped := fmt.Errorf("reserve: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, appErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeValidation))
	assert.False(t, HasCode(wrapped, ErrCodeStorageError))
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewInvalidUploadError("a.pdf", "only .txt files are accepted"))

	assert.True(t, stderrors.Is(err, New(ErrCodeInvalidUpload, "")))
	assert.False(t, stderrors.Is(err, New(ErrCodeValidation, "")))
}

func TestAsAppErrorNil(t *testing.T) {
	_, ok := AsAppError(nil)
	assert.False(t, ok)
	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestDetails(t *testing.T) {
	err := NewNotFoundError("user", "7").WithRequestID("req-1").WithContext("path", "/x")

	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, "7", err.Details["id"])
	assert.Equal(t, "req-1", err.RequestID)
	assert.Equal(t, "/x", err.Context["path"])
}
