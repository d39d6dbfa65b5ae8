package scheduler

import (
	"errors"

	"tymeloop/internal/eventbus"
	"tymeloop/internal/task"
	"tymeloop/internal/tyming"
	logx "tymeloop/pkg/logx"
)

// deed is the bookkeeping record of one active task.
type deed struct {
	task   task.Task
	retyme float64

	// gone: finalized or force-closed; dropped on the next compaction.
	gone bool
}

// deedList is the pass algorithm shared by Scheduler and Group.
//
// Structural changes requested while a pass is iterating (activations and
// removals) are buffered and applied at the start of the next pass, so a task
// may extend or remove itself or any sibling from inside Recur without a
// deed being skipped or resumed twice in the same pass.
type deedList struct {
	scope string
	tymth tyming.Tymth
	log   logx.Logger
	bus   eventbus.Bus

	deeds   []*deed
	pending []*deed

	passing bool
	current *deed

	counters Counters
}

func newDeedList(scope string, tymth tyming.Tymth, log logx.Logger, bus eventbus.Bus) *deedList {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &deedList{scope: scope, tymth: tymth, log: log, bus: bus}
}

func (l *deedList) now() float64 {
	if l.tymth == nil {
		return 0
	}
	return l.tymth()
}

// find returns the live deed for t, searching pending activations too.
func (l *deedList) find(t task.Task) *deed {
	for _, d := range l.deeds {
		if !d.gone && d.task == t {
			return d
		}
	}
	for _, d := range l.pending {
		if !d.gone && d.task == t {
			return d
		}
	}
	return nil
}

// Len counts live deeds including activations not yet merged.
func (l *deedList) Len() int {
	n := 0
	for _, d := range l.deeds {
		if !d.gone {
			n++
		}
	}
	for _, d := range l.pending {
		if !d.gone {
			n++
		}
	}
	return n
}

// Tasks returns the live tasks in activation order.
func (l *deedList) Tasks() []task.Task {
	out := make([]task.Task, 0, len(l.deeds)+len(l.pending))
	for _, d := range l.deeds {
		if !d.gone {
			out = append(out, d.task)
		}
	}
	for _, d := range l.pending {
		if !d.gone {
			out = append(out, d.task)
		}
	}
	return out
}

func (l *deedList) info() []DeedInfo {
	out := make([]DeedInfo, 0, len(l.deeds)+len(l.pending))
	add := func(ds []*deed) {
		for _, d := range ds {
			if d.gone {
				continue
			}
			out = append(out, DeedInfo{Task: task.Name(d.task), Retyme: d.retyme, Tock: d.task.Tock()})
		}
	}
	add(l.deeds)
	add(l.pending)
	return out
}

// activate winds t to the list's time source, enters it and schedules it as
// due at the current tyme. During a pass the deed is held back until the next
// pass starts.
func (l *deedList) activate(t task.Task) error {
	if t == nil {
		return ErrNilTask
	}
	if l.find(t) != nil {
		return ErrAlreadyActive
	}
	t.Wind(l.tymth)
	t.SetDone(task.Pending)
	tyme := l.now()
	if err := t.Enter(); err != nil {
		return err
	}
	d := &deed{task: t, retyme: tyme}
	if l.passing {
		l.pending = append(l.pending, d)
	} else {
		l.deeds = append(l.deeds, d)
	}
	l.counters.Entered++
	l.counters.Resumptions++
	l.log.Debug("task entered", logx.String("task", task.Name(t)), logx.Tyme(tyme))
	l.publish(EventTaskEntered, t, tyme, "")
	return nil
}

// compact drops finished deeds and merges pending activations.
func (l *deedList) compact() {
	n := 0
	for _, d := range l.deeds {
		if d.gone {
			continue
		}
		l.deeds[n] = d
		n++
	}
	for i := n; i < len(l.deeds); i++ {
		l.deeds[i] = nil
	}
	l.deeds = l.deeds[:n]
	for _, d := range l.pending {
		if !d.gone {
			l.deeds = append(l.deeds, d)
		}
	}
	l.pending = l.pending[:0]
}

// pass resumes every due deed once at tyme, in activation order.
// A task error aborts the pass and is returned as is; the failing task stays
// active.
func (l *deedList) pass(tyme float64) error {
	l.compact()
	l.passing = true
	defer func() {
		l.passing = false
		l.current = nil
	}()

	for _, d := range l.deeds {
		if d.gone || d.retyme > tyme {
			continue
		}
		l.current = d
		res, err := d.task.Recur(tyme)
		l.current = nil
		l.counters.Resumptions++
		if err != nil {
			return err
		}
		if d.gone {
			// Force-closed from inside its own Recur by an Exit.
			continue
		}
		if res == task.Complete {
			if err := l.finish(d); err != nil {
				return err
			}
			continue
		}
		d.retyme = tyme + d.task.Tock()
	}
	return nil
}

// finish runs the clean path: Close, Exit, Completed.
func (l *deedList) finish(d *deed) error {
	d.gone = true
	t := d.task
	t.SetDone(task.Completed)
	l.counters.Completed++
	tyme := l.now()
	cerr := t.Close()
	xerr := t.Exit()
	l.log.Debug("task completed", logx.String("task", task.Name(t)), logx.Tyme(tyme))
	l.publish(EventTaskCompleted, t, tyme, task.Completed.String())
	var errs []error
	for _, err := range []error{cerr, xerr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrs(errs)
}

// abort runs the forced path: Exit only, Aborted.
func (l *deedList) abort(d *deed) error {
	d.gone = true
	t := d.task
	t.SetDone(task.Aborted)
	l.counters.Aborted++
	tyme := l.now()
	err := t.Exit()
	l.log.Debug("task aborted", logx.String("task", task.Name(t)), logx.Tyme(tyme))
	l.publish(EventTaskAborted, t, tyme, task.Aborted.String())
	return err
}

// remove force-closes t if it is active. Unknown or finished tasks are a
// no-op. A task removing itself from inside its own Recur keeps its deed and
// runs on until it completes.
func (l *deedList) remove(t task.Task) error {
	d := l.find(t)
	if d == nil || d == l.current {
		return nil
	}
	err := l.abort(d)
	if !l.passing {
		l.compact()
	}
	return err
}

// closeAll force-closes every live deed in activation order, including one
// whose Recur is executing.
func (l *deedList) closeAll() error {
	var errs []error
	for _, ds := range [][]*deed{l.deeds, l.pending} {
		for _, d := range ds {
			if d.gone {
				continue
			}
			if err := l.abort(d); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if !l.passing {
		l.compact()
	}
	return joinErrs(errs)
}

func (l *deedList) publish(typ string, t task.Task, tyme float64, outcome string) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(eventbus.Event{
		Type: typ,
		Tyme: tyme,
		Data: TaskEvent{Scope: l.scope, Task: task.Name(t), Tyme: tyme, Outcome: outcome},
	})
}

func joinErrs(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
