package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeValidation, "name is required")
		assert.True(t, HasCode(err, CodeValidation))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("wrapped by fmt", func(t *testing.T) {
		err := fmt.Errorf("screen: %w", New(CodeNotFound, "entry not found"))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("nested coded errors", func(t *testing.T) {
		inner := New(CodeTimeout, "deadline")
		err := Wrap(inner, CodeInternal, "query failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeTimeout))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, Is(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "store unavailable")

	require.ErrorIs(t, err, cause)
	de, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnavailable, de.Code)
	assert.Equal(t, "store unavailable", de.Message)
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}
