package taskerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	assert.ErrorIs(t, Invalid("title", "must not be empty"), ErrValidation)
	assert.ErrorIs(t, NotFound("abc"), ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", NotFound("abc")), ErrNotFound)

	cause := errors.New("connection refused")
	err := Persistence("sync tasks", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to sync tasks: connection refused", err.Error())
	assert.NoError(t, Persistence("sync tasks", nil))

	assert.ErrorIs(t, &ImportFormatError{Err: cause}, ErrImportFormat)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(Invalid("title", "empty")))
	assert.Equal(t, 1, ExitCode(NotFound("x")))
	assert.Equal(t, 2, ExitCode(errors.New("boom")))
}
