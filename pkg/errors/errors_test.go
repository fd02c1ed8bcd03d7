package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError(t *testing.T) {
	err := NewStoreWrite("clean", "write file", io.ErrShortWrite)
	assert.Equal(t, "[store_write] clean: write file - short write", err.Error())
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.False(t, err.IsRetryable())

	err = NewValidation("scatter", "choose exactly 2 columns")
	assert.Equal(t, "[validation] scatter: choose exactly 2 columns", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewCollection("collect", "timeout", nil).IsRetryable())
	assert.True(t, NewCache("cache", "redis down", nil).IsRetryable())
	assert.False(t, NewParsing("raw", "bad header", nil).IsRetryable())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", NewStoreRead("raw", "missing", nil))
	typ, ok := TypeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeStoreRead, typ)

	_, ok = TypeOf(io.EOF)
	assert.False(t, ok)
}
