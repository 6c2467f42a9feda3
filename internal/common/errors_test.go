package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_IsAndMessage(t *testing.T) {
	err := NewValidationError("score", "must be between 1 and 5")

	assert.True(t, errors.Is(err, ErrorValidation))
	assert.False(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "score: must be between 1 and 5", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ve))
	assert.Equal(t, "score", ve.Field)
}

func TestValidationError_NoField(t *testing.T) {
	err := &ValidationError{Message: "bad"}
	assert.Equal(t, "bad", err.Error())
}

func TestTransportError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransportError("list objects", cause)

	assert.True(t, errors.Is(err, ErrorTransport))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "list objects: connection reset", err.Error())
}

func TestNewTransportError_Nil(t *testing.T) {
	assert.NoError(t, NewTransportError("noop", nil))
}
