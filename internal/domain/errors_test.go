package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensionMismatchError(t *testing.T) {
	err := fmt.Errorf("add: %w", &DimensionMismatchError{Expected: 3, Actual: 2})

	assert.ErrorIs(t, err, ErrDimensionMismatch)
	var dm *DimensionMismatchError
	assert.True(t, errors.As(err, &dm))
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Contains(t, err.Error(), "expected 3, got 2")
}

func TestProviderError(t *testing.T) {
	cause := errors.New("boom")
	err := &ProviderError{Provider: "openai", StatusCode: 503, Err: cause}

	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "503")

	noStatus := &ProviderError{Provider: "openai", Err: cause}
	assert.NotContains(t, noStatus.Error(), "status")
}

func TestConfigErrorf(t *testing.T) {
	err := ConfigErrorf("chunk overlap %d must be smaller than %d", 5, 5)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "chunk overlap 5")
}
