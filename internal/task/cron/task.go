package cron

import (
	"context"
	"errors"
	"time"

	robcron "github.com/robfig/cron/v3"

	"tymeloop/internal/task"
	logx "tymeloop/pkg/logx"
)

// DefaultTock is how often a cron task checks its schedule, in tyme units.
const DefaultTock = 1.0

var ErrNilJob = errors.New("cron: nil job")

// Fire describes one due run of a cron task.
type Fire struct {
	Task string
	Tyme float64
	At   time.Time
	Run  int
}

// Job is the work a cron task performs when due. A returned error is handed
// to the scheduler unmodified.
type Job func(ctx context.Context, f Fire) error

type Option func(*Task)

// WithEpoch sets the wall-clock time that tyme 0 maps to.
func WithEpoch(epoch time.Time) Option {
	return func(t *Task) { t.epoch = epoch }
}

// WithMaxRuns completes the task after n fires; 0 keeps it running.
func WithMaxRuns(n int) Option {
	return func(t *Task) {
		if n >= 0 {
			t.maxRuns = n
		}
	}
}

// WithTock overrides DefaultTock.
func WithTock(tock float64) Option {
	return func(t *Task) { _ = t.SetTock(tock) }
}

// WithSpread delays the first fire of an interval schedule by a per-task
// jitter below ceiling.
func WithSpread(ceiling time.Duration) Option {
	return func(t *Task) { t.spread = ceiling }
}

func WithContext(ctx context.Context) Option {
	return func(t *Task) { t.ctx = ctx }
}

func WithLogger(log logx.Logger) Option {
	return func(t *Task) { t.log = log }
}

// Task fires a Job whenever its schedule comes due in virtual tyme.
type Task struct {
	task.Base

	spec    Spec
	job     Job
	epoch   time.Time
	maxRuns int
	spread  time.Duration
	ctx     context.Context
	log     logx.Logger

	base  robcron.Schedule
	sched robcron.Schedule
	next  time.Time
	runs  int
}

// New parses raw and returns a cron task running job.
func New(name, raw string, job Job, opts ...Option) (*Task, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	spec, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}
	sched, err := spec.Schedule()
	if err != nil {
		return nil, err
	}
	t := &Task{
		Base:  task.NewBase(name, DefaultTock),
		spec:  spec,
		job:   job,
		epoch: time.Unix(0, 0).UTC(),
		ctx:   context.Background(),
		log:   logx.Nop(),
		base:  sched,
		sched: sched,
	}
	for _, o := range opts {
		o(t)
	}
	if t.log.IsZero() {
		t.log = logx.Nop()
	}
	t.log = t.log.With(logx.String("task", name), logx.String("schedule", spec.String()))
	return t, nil
}

func (t *Task) Spec() Spec       { return t.spec }
func (t *Task) Epoch() time.Time { return t.epoch }
func (t *Task) Runs() int        { return t.runs }
func (t *Task) Next() time.Time  { return t.next }

// At maps a tyme onto wall-clock time.
func (t *Task) At(tyme float64) time.Time {
	return t.epoch.Add(time.Duration(tyme * float64(time.Second)))
}

// Enter computes the first fire time from the current tyme.
func (t *Task) Enter() error {
	now, ok := t.Tyme()
	if !ok {
		return task.ErrUnwound
	}
	t.runs = 0
	from := t.At(now)
	t.sched = t.base
	if t.spread > 0 && t.spec.Kind == KindInterval {
		var jitter time.Duration
		t.sched, jitter = withSpread(t.base, t.spec.Every, t.spread, from, t.Name())
		t.log.Debug("first run spread", logx.Duration("jitter", jitter))
	}
	t.next = t.sched.Next(from)
	return nil
}

// Recur runs the job once if at least one fire came due since the last
// resumption.
func (t *Task) Recur(tyme float64) (task.Result, error) {
	at := t.At(tyme)
	if t.next.IsZero() || t.next.After(at) {
		return task.Continue, nil
	}
	t.runs++
	f := Fire{Task: t.Name(), Tyme: tyme, At: at, Run: t.runs}
	t.log.Debug("cron fired", logx.Tyme(tyme), logx.Int("run", t.runs))
	if err := t.job(t.ctx, f); err != nil {
		return task.Continue, err
	}
	t.next = t.sched.Next(at)
	if t.maxRuns > 0 && t.runs >= t.maxRuns {
		return task.Complete, nil
	}
	return task.Continue, nil
}
