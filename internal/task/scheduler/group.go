package scheduler

import (
	"tymeloop/internal/eventbus"
	"tymeloop/internal/task"
	"tymeloop/internal/tyming"
	logx "tymeloop/pkg/logx"
)

// Group is a Task that schedules its own children.
//
// From its parent's view it is one task with its own tock. Each time it is
// resumed it runs one pass over its child deeds, using the parent's tyme and
// the same algorithm as Scheduler. It completes once no child is left, unless
// Always is set.
type Group struct {
	task.Base

	log    logx.Logger
	bus    eventbus.Bus
	always bool

	doers []task.Task
	deeds *deedList
	total Counters
}

// NewGroup returns a group with the given children registered.
func NewGroup(name string, tock float64, doers ...task.Task) *Group {
	return &Group{
		Base:  task.NewBase(name, tock),
		log:   logx.Nop(),
		doers: append([]task.Task(nil), doers...),
	}
}

func (g *Group) SetLogger(log logx.Logger) {
	if log.IsZero() {
		log = logx.Nop()
	}
	g.log = log.With(logx.String("group", g.Name()))
}

func (g *Group) SetBus(bus eventbus.Bus) { g.bus = bus }

// SetAlways keeps the group alive with no children left.
func (g *Group) SetAlways(always bool) { g.always = always }

// Doers returns a copy of the registered children.
func (g *Group) Doers() []task.Task {
	return append([]task.Task(nil), g.doers...)
}

// Active returns the children that currently hold a deed.
func (g *Group) Active() []task.Task {
	if g.deeds == nil {
		return nil
	}
	return g.deeds.Tasks()
}

// Wind rebinds the group and every active child to tymth.
func (g *Group) Wind(tymth tyming.Tymth) {
	g.Base.Wind(tymth)
	if g.deeds == nil {
		return
	}
	g.deeds.tymth = tymth
	for _, t := range g.deeds.Tasks() {
		t.Wind(tymth)
	}
}

// Enter activates every child at the group's current tyme.
func (g *Group) Enter() error {
	if !g.Wound() {
		return task.ErrUnwound
	}
	g.deeds = newDeedList(g.Name(), g.Tymth(), g.log, g.bus)
	for _, t := range g.doers {
		if err := g.deeds.activate(t); err != nil {
			if xerr := g.deeds.closeAll(); xerr != nil {
				g.log.Warn("exit after failed enter", logx.Err(xerr))
			}
			g.release()
			return err
		}
	}
	return nil
}

// Recur runs one pass over the children.
func (g *Group) Recur(tyme float64) (task.Result, error) {
	if g.deeds == nil {
		return task.Complete, ErrNotRunning
	}
	if err := g.deeds.pass(tyme); err != nil {
		return task.Continue, err
	}
	if g.deeds.Len() == 0 && !g.always {
		return task.Complete, nil
	}
	return task.Continue, nil
}

// Exit force-closes children that are still active.
func (g *Group) Exit() error {
	if g.deeds == nil {
		return nil
	}
	err := g.deeds.closeAll()
	g.release()
	return err
}

// Extend registers children; while the group is active they are entered
// immediately and first resumed on the group's next pass.
func (g *Group) Extend(tasks ...task.Task) error {
	for _, t := range tasks {
		if t == nil {
			return ErrNilTask
		}
		if g.deeds != nil {
			if err := g.deeds.activate(t); err != nil {
				return err
			}
		}
		g.doers = appendOnce(g.doers, t)
	}
	return nil
}

// Remove unregisters children, force-closing active ones.
func (g *Group) Remove(tasks ...task.Task) error {
	var errs []error
	for _, t := range tasks {
		g.doers = dropTask(g.doers, t)
		if g.deeds != nil {
			if err := g.deeds.remove(t); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrs(errs)
}

func (g *Group) release() {
	c := g.deeds.counters
	g.total.Entered += c.Entered
	g.total.Completed += c.Completed
	g.total.Aborted += c.Aborted
	g.total.Resumptions += c.Resumptions
	g.deeds = nil
}

// Totals returns the lifecycle counts of finished activations.
func (g *Group) Totals() Counters { return g.total }
