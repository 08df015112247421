package errkind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	base := errors.New("tag already exists")

	err := Classify(CodeStateConflict, base)
	require.Error(t, err)

	assert.Equal(t, CodeStateConflict, CodeOf(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "STATE_CONFLICT")
	assert.Contains(t, err.Error(), "tag already exists")
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(CodeRemoteFailure, nil))
}

func TestCodeOfSurvivesWrapping(t *testing.T) {
	err := Classifyf(CodePreconditionFailed, "no draft release found")
	wrapped := fmt.Errorf("fetch notes: %w", err)

	assert.Equal(t, CodePreconditionFailed, CodeOf(wrapped))
}

func TestCodeOfUnclassified(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
}
