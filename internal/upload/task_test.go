package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tripdesk/internal/errors"
)

func TestTask_HappyPath(t *testing.T) {
	task := NewTask("photo.jpg", 1024)
	assert.Equal(t, StateIdle, task.State)

	require.NoError(t, task.StartValidation())
	require.NoError(t, task.StartUpload())

	task.SetProgress(40)
	assert.Equal(t, 40, task.Progress)

	require.NoError(t, task.Succeed("https://media.example.com/a.jpg", "a"))
	assert.Equal(t, StateSucceeded, task.State)
	assert.Equal(t, 100, task.Progress)

	// Succeeded returns to Idle only through an explicit Reset.
	require.NoError(t, task.Reset())
	assert.Equal(t, StateIdle, task.State)
	assert.Empty(t, task.ResultURL)
	assert.Zero(t, task.Progress)
}

func TestTask_Rejection(t *testing.T) {
	task := NewTask("huge.jpg", 10<<20)
	require.NoError(t, task.StartValidation())
	require.NoError(t, task.Reject(apperrors.ErrTooLarge))

	assert.Equal(t, StateRejected, task.State)
	assert.ErrorIs(t, task.Err, apperrors.ErrTooLarge)

	// Rejected is terminal; a retry means a fresh task.
	assert.ErrorIs(t, task.StartValidation(), ErrInvalidTransition)
	assert.ErrorIs(t, task.StartUpload(), ErrInvalidTransition)
}

func TestTask_FailureIsTerminal(t *testing.T) {
	task := NewTask("photo.jpg", 1024)
	require.NoError(t, task.StartValidation())
	require.NoError(t, task.StartUpload())
	require.NoError(t, task.Fail(errors.New("connection reset")))

	assert.Equal(t, StateFailed, task.State)
	assert.ErrorIs(t, task.Succeed("url", "id"), ErrInvalidTransition)
	assert.ErrorIs(t, task.Reset(), ErrInvalidTransition)
}

func TestTask_IllegalTransitions(t *testing.T) {
	task := NewTask("photo.jpg", 1024)

	assert.ErrorIs(t, task.StartUpload(), ErrInvalidTransition)
	assert.ErrorIs(t, task.Succeed("url", "id"), ErrInvalidTransition)
	assert.ErrorIs(t, task.Fail(errors.New("x")), ErrInvalidTransition)
	assert.ErrorIs(t, task.Reset(), ErrInvalidTransition)
	assert.Equal(t, StateIdle, task.State, "failed transition must not change state")
}

func TestTask_ProgressRules(t *testing.T) {
	task := NewTask("photo.jpg", 1024)

	// Progress outside Uploading is dropped.
	task.SetProgress(50)
	assert.Zero(t, task.Progress)

	require.NoError(t, task.StartValidation())
	require.NoError(t, task.StartUpload())

	task.SetProgress(150)
	assert.Equal(t, 100, task.Progress)
	task.SetProgress(-5)
	assert.Equal(t, IndeterminateProgress, task.Progress)
}
