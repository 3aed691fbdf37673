package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("failed to open database", cause)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "failed to open database", userErr.UserMessage)
	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestUserError_NoCause(t *testing.T) {
	err := NewUserError("nothing to commit", nil)
	assert.Equal(t, "nothing to commit", err.Error())
}

func TestConfigSentinels(t *testing.T) {
	missing := fmt.Errorf("%w: database.path is unset", ErrMissingConfig)
	assert.ErrorIs(t, missing, ErrMissingConfig)

	invalid := fmt.Errorf("%w: invalid log level %q", ErrInvalidConfig, "verbose")
	assert.ErrorIs(t, invalid, ErrInvalidConfig)
	assert.NotErrorIs(t, invalid, ErrMissingConfig)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("date", "missing")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "date", validationErr.Field)
	assert.Contains(t, err.Error(), "date missing")
}
