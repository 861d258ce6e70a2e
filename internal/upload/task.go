package upload

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// State is an upload task's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateUploading  State = "uploading"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ErrInvalidTransition is returned when a task is driven out of order.
var ErrInvalidTransition = errors.New("invalid upload task transition")

// legal transitions. Rejected and Failed are terminal: retrying means
// selecting the file again, which creates a fresh task. Succeeded returns to
// Idle only through an explicit Reset (the user removing the image).
var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateRejected, StateUploading},
	StateUploading:  {StateSucceeded, StateFailed},
	StateSucceeded:  {StateIdle},
}

// Task tracks one file's journey from selection to a durable URL or a
// terminal failure. Transient: never persisted.
type Task struct {
	ID       uuid.UUID
	FileName string
	Size     int64

	State    State
	Progress int

	ResultURL string
	PublicID  string
	Err       error
}

// NewTask creates an idle task for a freshly selected file.
func NewTask(fileName string, size int64) *Task {
	return &Task{
		ID:       uuid.New(),
		FileName: fileName,
		Size:     size,
		State:    StateIdle,
	}
}

// StartValidation moves Idle -> Validating.
func (t *Task) StartValidation() error {
	return t.transition(StateValidating)
}

// Reject moves Validating -> Rejected, recording the rejection reason.
func (t *Task) Reject(err error) error {
	if terr := t.transition(StateRejected); terr != nil {
		return terr
	}
	t.Err = err
	return nil
}

// StartUpload moves Validating -> Uploading.
func (t *Task) StartUpload() error {
	return t.transition(StateUploading)
}

// SetProgress records transfer progress while Uploading. -1 means
// indeterminate; anything else is clamped to 0..100. Progress updates
// outside Uploading are dropped.
func (t *Task) SetProgress(p int) {
	if t.State != StateUploading {
		return
	}
	if p < -1 {
		p = -1
	}
	if p > 100 {
		p = 100
	}
	t.Progress = p
}

// Succeed moves Uploading -> Succeeded with the durable URL.
func (t *Task) Succeed(url, publicID string) error {
	if err := t.transition(StateSucceeded); err != nil {
		return err
	}
	t.ResultURL = url
	t.PublicID = publicID
	t.Progress = 100
	return nil
}

// Fail moves Uploading -> Failed, recording the cause. Terminal.
func (t *Task) Fail(err error) error {
	if terr := t.transition(StateFailed); terr != nil {
		return terr
	}
	t.Err = err
	return nil
}

// Reset moves Succeeded -> Idle when the user removes the image. The remote
// object is untouched; the media host is append-only from here.
func (t *Task) Reset() error {
	if err := t.transition(StateIdle); err != nil {
		return err
	}
	t.ResultURL = ""
	t.PublicID = ""
	t.Progress = 0
	t.Err = nil
	return nil
}

func (t *Task) transition(to State) error {
	for _, allowed := range transitions[t.State] {
		if allowed == to {
			t.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, to)
}
