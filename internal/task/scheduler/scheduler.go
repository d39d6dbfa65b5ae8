package scheduler

import (
	"tymeloop/internal/eventbus"
	"tymeloop/internal/task"
	"tymeloop/internal/tyming"
	logx "tymeloop/pkg/logx"
)

// Scheduler is the root driver of a flat list of tasks.
//
// Lifecycle: idle -> Enter -> running -> Recur* -> Exit -> idle.
// Do wraps the whole cycle for run-to-completion use.
type Scheduler struct {
	name string
	cfg  Config
	log  logx.Logger
	bus  eventbus.Bus

	clock *tyming.Clock
	timer *tyming.Timer

	doers   []task.Task
	deeds   *deedList
	running bool

	// counters survive across runs; deedList counters are per run.
	total Counters
}

type Option func(*Scheduler)

// WithBus publishes lifecycle events on bus.
func WithBus(bus eventbus.Bus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithDoers registers the initial task list.
func WithDoers(doers ...task.Task) Option {
	return func(s *Scheduler) { s.doers = append(s.doers, doers...) }
}

// WithName labels the scheduler in logs and events.
func WithName(name string) Option {
	return func(s *Scheduler) { s.name = name }
}

func New(cfg Config, log logx.Logger, opts ...Option) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := cfg.Validate(); err != nil {
		log.Warn("tock clamped to 0", logx.Err(err))
		cfg.Tock = 0
	}
	s := &Scheduler{
		name:  "root",
		cfg:   cfg,
		log:   log,
		clock: tyming.NewClock(cfg.Tyme, cfg.Tock),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logx.String("scheduler", s.name))
	return s
}

func (s *Scheduler) Name() string   { return s.name }
func (s *Scheduler) Config() Config { return s.cfg }
func (s *Scheduler) Running() bool  { return s.running }
func (s *Scheduler) Tyme() float64  { return s.clock.Tyme() }
func (s *Scheduler) Tock() float64  { return s.clock.Tock() }

// Tymen returns a Tymth bound to the scheduler clock.
func (s *Scheduler) Tymen() tyming.Tymth { return s.clock.Tymen() }

// Doers returns a copy of the registered tasks.
func (s *Scheduler) Doers() []task.Task {
	return append([]task.Task(nil), s.doers...)
}

// Active returns the tasks that currently hold a deed.
func (s *Scheduler) Active() []task.Task {
	if s.deeds == nil {
		return nil
	}
	return s.deeds.Tasks()
}

// Enter activates every registered task at the current tyme.
// If a task fails to enter, the tasks entered before it are force-closed and
// the scheduler stays idle.
func (s *Scheduler) Enter() error {
	if s.running {
		return ErrAlreadyRunning
	}
	s.deeds = newDeedList(s.name, s.clock.Tymen(), s.log, s.bus)
	s.timer = tyming.NewTimer(s.clock.Tymen(), s.cfg.Limit)
	s.running = true

	s.log.Debug("scheduler entered", logx.Tyme(s.clock.Tyme()), logx.Int("doers", len(s.doers)))
	s.publish(EventSchedulerEntered)

	for _, t := range s.doers {
		if err := s.deeds.activate(t); err != nil {
			if xerr := s.Exit(); xerr != nil {
				s.log.Warn("exit after failed enter", logx.Err(xerr))
			}
			return err
		}
	}
	return nil
}

// Recur runs one pass at the current tyme, then advances tyme by one tock.
func (s *Scheduler) Recur() error {
	if !s.running {
		return ErrNotRunning
	}
	if err := s.deeds.pass(s.clock.Tyme()); err != nil {
		return err
	}
	s.clock.Tick()
	return nil
}

// RecurAt moves the clock to tyme and runs one pass there without advancing
// afterwards. It lets a harness step virtual time explicitly.
func (s *Scheduler) RecurAt(tyme float64) error {
	if !s.running {
		return ErrNotRunning
	}
	if err := s.clock.SetTyme(tyme); err != nil {
		return err
	}
	return s.deeds.pass(tyme)
}

// Exit force-closes every remaining task and returns to idle.
// Calling Exit while idle is a no-op.
func (s *Scheduler) Exit() error {
	if !s.running {
		return nil
	}
	err := s.deeds.closeAll()
	s.running = false
	s.accumulate()
	s.log.Debug("scheduler exited", logx.Tyme(s.clock.Tyme()))
	s.publish(EventSchedulerExited)
	return err
}

// Extend registers tasks. While running they are activated immediately at the
// current tyme and first resumed on the next pass.
func (s *Scheduler) Extend(tasks ...task.Task) error {
	for _, t := range tasks {
		if t == nil {
			return ErrNilTask
		}
		if s.running {
			if err := s.deeds.activate(t); err != nil {
				return err
			}
		}
		s.doers = appendOnce(s.doers, t)
	}
	return nil
}

// Remove unregisters tasks. Active ones are force-closed (Exit only, done =
// Aborted). Removing an unknown or finished task is a no-op. A task removing
// itself from its own Recur stays active until it completes.
func (s *Scheduler) Remove(tasks ...task.Task) error {
	var errs []error
	for _, t := range tasks {
		s.doers = dropTask(s.doers, t)
		if s.running {
			if err := s.deeds.remove(t); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrs(errs)
}

// Reset rewinds the clock for a fresh run. It is rejected while running.
func (s *Scheduler) Reset(tyme float64) error {
	if s.running {
		return ErrAlreadyRunning
	}
	s.clock = tyming.NewClock(tyme, s.cfg.Tock)
	return nil
}

func (s *Scheduler) limitReached() bool {
	return s.cfg.Limit > 0 && s.timer != nil && s.timer.Expired()
}

func (s *Scheduler) accumulate() {
	if s.deeds == nil {
		return
	}
	c := s.deeds.counters
	s.total.Entered += c.Entered
	s.total.Completed += c.Completed
	s.total.Aborted += c.Aborted
	s.total.Resumptions += c.Resumptions
	s.deeds.counters = Counters{}
}

func (s *Scheduler) publish(typ string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Tyme: s.clock.Tyme(), Data: TaskEvent{Scope: s.name, Tyme: s.clock.Tyme()}})
}

// appendOnce appends t unless it is already registered.
func appendOnce(ts []task.Task, t task.Task) []task.Task {
	for _, x := range ts {
		if x == t {
			return ts
		}
	}
	return append(ts, t)
}

// dropTask removes every occurrence of t keeping order.
func dropTask(ts []task.Task, t task.Task) []task.Task {
	n := 0
	for _, x := range ts {
		if x == t {
			continue
		}
		ts[n] = x
		n++
	}
	for i := n; i < len(ts); i++ {
		ts[i] = nil
	}
	return ts[:n]
}
