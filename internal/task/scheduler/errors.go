package scheduler

import "errors"

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrNotRunning     = errors.New("scheduler not running")
	ErrAlreadyActive  = errors.New("task already active in this schedule")
	ErrNilTask        = errors.New("nil task")
)
