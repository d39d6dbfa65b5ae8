package scheduler

import (
	"fmt"

	"tymeloop/internal/tyming"
)

// Config controls a root Scheduler.
//
// Tock is the tyme added per cycle. Limit <= 0 disables the run budget.
// Real paces Do so one cycle takes roughly Tock seconds of wall time;
// otherwise cycles run back to back and only virtual tyme advances.
// Always keeps Do looping after the last task finished.
type Config struct {
	Tyme   float64
	Tock   float64
	Real   bool
	Limit  float64
	Always bool
}

// Validate reports a negative Tock. New clamps it to 0 instead of failing.
func (c Config) Validate() error {
	if c.Tock < 0 {
		return fmt.Errorf("%w: scheduler tock %v", tyming.ErrNegativeTock, c.Tock)
	}
	return nil
}

// Lifecycle event types published on the bus.
const (
	EventSchedulerEntered = "scheduler.entered"
	EventSchedulerExited  = "scheduler.exited"
	EventTaskEntered      = "task.entered"
	EventTaskCompleted    = "task.completed"
	EventTaskAborted      = "task.aborted"
)

// TaskEvent is the Data payload of task lifecycle events.
type TaskEvent struct {
	Scope   string  `json:"scope"`
	Task    string  `json:"task"`
	Tyme    float64 `json:"tyme"`
	Outcome string  `json:"outcome,omitempty"`
}

// Counters are cumulative lifecycle counts.
type Counters struct {
	Entered     uint64
	Completed   uint64
	Aborted     uint64
	Resumptions uint64
}

// DeedInfo describes one active task.
type DeedInfo struct {
	Task   string
	Retyme float64
	Tock   float64
}

// Snapshot is a lightweight view for diagnostics.
type Snapshot struct {
	Name    string
	Tyme    float64
	Tock    float64
	Limit   float64
	Real    bool
	Always  bool
	Running bool

	Doers []string
	Deeds []DeedInfo
	Counters
}
