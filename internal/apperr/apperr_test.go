package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeLocked, "collection home is being saved")
	assert.Equal(t, "[LOCKED] collection home is being saved", err.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(CodeStorage, "put tree", cause)
	assert.Equal(t, "[STORAGE_ERROR] put tree: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("save home: %w", NotFound("session", "abc"))

	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeConflict))
	assert.False(t, Is(nil, CodeNotFound))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestNotFoundDetails(t *testing.T) {
	err := NotFound("group", "g1")
	assert.Equal(t, `group "g1" not found`, err.Message)
	assert.Equal(t, "group", err.Details["resource_type"])
	assert.Equal(t, "g1", err.Details["name"])
}
