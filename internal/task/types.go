package task

import (
	"fmt"
	"strings"

	"tymeloop/internal/tyming"
)

// Result is the completion signal returned by Recur.
// The zero value is Complete.
type Result int

const (
	Complete Result = iota
	Continue
)

func (r Result) String() string {
	switch r {
	case Complete:
		return "complete"
	case Continue:
		return "continue"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Outcome is the tri-state "done" flag of a task.
type Outcome int

const (
	// Pending: never finished (not yet scheduled or still active).
	Pending Outcome = iota
	// Completed: Recur returned Complete; Close and Exit ran.
	Completed
	// Aborted: force-closed by Remove, limit or scheduler exit; only Exit ran.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Task is a unit of cooperatively scheduled work.
//
// Lifecycle rules enforced by the scheduler:
//   - Enter is called once, before any Recur.
//   - Recur is never called after the outcome is set.
//   - Close is called once, only after Recur returned Complete.
//   - Exit is called once, always last.
//
// Errors from any phase propagate to the scheduler's caller unmodified.
type Task interface {
	Wind(tymth tyming.Tymth)
	Tymth() tyming.Tymth

	// Tock is the desired tyme between Recur calls; 0 means every cycle.
	Tock() float64

	Enter() error
	Recur(tyme float64) (Result, error)
	Close() error
	Exit() error

	Done() Outcome
	SetDone(o Outcome)
}

// Named is implemented by tasks that carry a human readable name.
type Named interface {
	Name() string
}

// Name returns a label for logs and diagnostics.
func Name(t Task) string {
	if t == nil {
		return "<nil>"
	}
	if n, ok := t.(Named); ok {
		if s := strings.TrimSpace(n.Name()); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%T", t)
}
