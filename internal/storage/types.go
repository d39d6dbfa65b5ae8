package storage

import (
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrClosed   = errors.New("storage closed")
)

// Config configures the journal.
//
// Driver values:
//   - "file": JSON Lines files next to Path
//   - "sqlite": SQLite database file (build tag sqlite)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Record is one lifecycle event of one task in one run.
type Record struct {
	At      time.Time `json:"at"`
	Run     string    `json:"run"`
	Scope   string    `json:"scope"`
	Task    string    `json:"task,omitempty"`
	Event   string    `json:"event"`
	Tyme    float64   `json:"tyme"`
	Outcome string    `json:"outcome,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// RunSummary describes one scheduler run. It is written when the run starts
// and overwritten when it ends.
type RunSummary struct {
	Run       string    `json:"run"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished,omitzero"`
	Tyme      float64   `json:"tyme"`
	Entered   uint64    `json:"entered"`
	Completed uint64    `json:"completed"`
	Aborted   uint64    `json:"aborted"`
	Err       string    `json:"err,omitempty"`
}

// Done reports whether the run has finished.
func (r RunSummary) Done() bool { return !r.Finished.IsZero() }
