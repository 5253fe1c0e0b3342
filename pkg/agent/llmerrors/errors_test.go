package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "rate_limit", ErrorTypeRateLimit.String())
	assert.Equal(t, "auth", ErrorTypeAuth.String())
	assert.Equal(t, "empty_response", ErrorTypeEmptyResponse.String())
	assert.Equal(t, "invalid", ErrorType(99).String())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "LLM error (auth): bad key", NewError(ErrorTypeAuth, "bad key").Error())
	assert.Equal(t, "LLM error (transient): status 503", (&Error{Type: ErrorTypeTransient, StatusCode: 503}).Error())

	cause := errors.New("connection reset")
	assert.Equal(t, "LLM error (transient): connection reset", (&Error{Type: ErrorTypeTransient, Err: cause}).Error())
}

func TestIsAndTypeOfThroughWrapping(t *testing.T) {
	base := NewErrorWithStatus(ErrorTypeRateLimit, 429, "slow down")
	wrapped := fmt.Errorf("request failed: %w", base)

	assert.True(t, Is(wrapped, ErrorTypeRateLimit))
	assert.False(t, Is(wrapped, ErrorTypeAuth))
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewErrorWithCause(ErrorTypeTransient, cause, "timed out")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClassifyStatus(t *testing.T) {
	tests := map[int]ErrorType{
		401: ErrorTypeAuth,
		403: ErrorTypeAuth,
		429: ErrorTypeRateLimit,
		400: ErrorTypeBadPrompt,
		413: ErrorTypeBadPrompt,
		500: ErrorTypeTransient,
		503: ErrorTypeTransient,
		404: ErrorTypeUnknown,
	}
	for code, want := range tests {
		assert.Equal(t, want, ClassifyStatus(code), "status %d", code)
	}
}

func TestClassify(t *testing.T) {
	t.Run("already classified is returned unchanged", func(t *testing.T) {
		orig := NewError(ErrorTypeEmptyResponse, "no choices")
		assert.Same(t, orig, Classify(fmt.Errorf("wrap: %w", orig), 500, "ignored"))
	})

	t.Run("status drives type", func(t *testing.T) {
		err := Classify(errors.New("denied"), 401, "openai request failed")
		assert.Equal(t, ErrorTypeAuth, err.Type)
		assert.Equal(t, 401, err.StatusCode)
	})

	t.Run("network failure is transient", func(t *testing.T) {
		err := Classify(errors.New("dial tcp: refused"), 0, "openai request failed")
		assert.Equal(t, ErrorTypeTransient, err.Type)
	})

	t.Run("cancellation is not transient", func(t *testing.T) {
		err := Classify(context.Canceled, 0, "cancelled")
		assert.Equal(t, ErrorTypeUnknown, err.Type)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
