package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotError_Error(t *testing.T) {
	err := StoreUnavailable("failed to list due records", fmt.Errorf("database is locked"))
	assert.Equal(t, "[STORE_UNAVAILABLE] failed to list due records: database is locked", err.Error())

	err = InvalidAction("empty callback data")
	assert.Equal(t, "[INVALID_ACTION] empty callback data", err.Error())
}

func TestIsCode_Wrapped(t *testing.T) {
	base := InterpretFailure("no completion given", nil)
	wrapped := fmt.Errorf("repeat: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeInterpretFailure))
	assert.False(t, IsCode(wrapped, ErrCodeStoreUnavailable))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeInterpretFailure))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(StoreUnavailable("x", nil)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", InterpreterUnavailable("x", nil))))
	assert.True(t, IsRetryable(DeliveryFailed("x", nil)))
	assert.False(t, IsRetryable(InterpretFailure("x", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestWithContext(t *testing.T) {
	err := DeliveryFailed("send failed", nil).WithContext("chat_id", int64(42))
	assert.Equal(t, int64(42), err.Context["chat_id"])
	assert.Equal(t, ErrCodeDeliveryFailed, err.GetCode())
	assert.Equal(t, ErrCodeInvalidArgument, GetCodeFromError(fmt.Errorf("x"), ErrCodeInvalidArgument))
}
