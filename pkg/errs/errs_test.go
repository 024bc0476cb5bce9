package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("boom")
	err := Store("failed to write", cause)
	assert.True(t, Is(err, KindStore))
	assert.False(t, Is(err, KindBroker))
	assert.ErrorIs(t, err, cause)
}

func TestValidationHasNoCause(t *testing.T) {
	err := Validation("floor out of range")
	assert.True(t, Is(err, KindValidation))
	assert.Contains(t, err.Error(), "floor out of range")
	assert.Nil(t, errors.Unwrap(err))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindStore))
}

func TestBadArgumentHasNoCause(t *testing.T) {
	err := BadArgument("exactly one of --min-id or --maxlen is required")
	assert.True(t, Is(err, KindBadArgument))
	assert.False(t, Is(err, KindValidation))
	assert.Nil(t, errors.Unwrap(err))
}
