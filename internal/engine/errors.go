package engine

import (
	"fmt"

	"github.com/talgya/guildgrid/internal/board"
)

// The error taxonomy below covers every expected, user-facing failure of the
// task lifecycle. All are recoverable: the caller is told what went wrong and
// no state was mutated.

// CapacityError reports a settlement that would push a building past its
// point ceiling.
type CapacityError struct {
	BuildingID string
	Level      int
	Capacity   int
	Accrued    int
	Attempted  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("building %s at level %d is full: %d/%d points settled, task worth %d rejected",
		e.BuildingID, e.Level, e.Accrued, e.Capacity, e.Attempted)
}

// StateError reports an operation attempted against a task in the wrong
// lifecycle state (grading outside REVIEW, renewal without a pending
// decision, moving a task that awaits one).
type StateError struct {
	TaskID string
	Status board.Status
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("task %s in status %s: %s", e.TaskID, e.Status, e.Reason)
}

// ValidationError reports malformed input, e.g. a NEGOTIATED distribution
// that does not sum to the task's base value.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Kind string // "task", "building", "player", "item", "purchase"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
