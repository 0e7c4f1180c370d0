package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("need at least %d agents", 2)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "need at least 2 agents")
}

func TestIsConfigErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("starting session: %w", NewConfigError("bad roster"))
	assert.True(t, IsConfigError(err))
}

func TestIsConfigErrorRejectsOtherErrors(t *testing.T) {
	assert.False(t, IsConfigError(errors.New("plain")))
	assert.False(t, IsConfigError(nil))
}
