// Package tasktest provides recording tasks for scheduler tests.
package tasktest

import (
	"tymeloop/internal/task"
)

// Event is one observed lifecycle call.
type Event struct {
	Phase string // "enter" | "recur" | "close" | "exit"
	Tyme  float64
}

// Probe records every lifecycle call it receives.
//
// Runs > 0 makes Recur complete on its Runs-th call; 0 never completes.
// OnRecur, when set, runs inside Recur before the result is decided.
type Probe struct {
	task.Base

	Runs    int
	OnRecur func(p *Probe, tyme float64) error
	// CloseErr and ExitErr are returned by Close and Exit.
	CloseErr error
	ExitErr  error

	Events []Event
	recurs int
}

// NewProbe returns a probe with the given name, tock and run count.
func NewProbe(name string, tock float64, runs int) *Probe {
	return &Probe{Base: task.NewBase(name, tock), Runs: runs}
}

func (p *Probe) now() float64 {
	v, _ := p.Tyme()
	return v
}

func (p *Probe) Enter() error {
	p.Events = append(p.Events, Event{Phase: "enter", Tyme: p.now()})
	return nil
}

func (p *Probe) Recur(tyme float64) (task.Result, error) {
	p.recurs++
	p.Events = append(p.Events, Event{Phase: "recur", Tyme: tyme})
	if p.OnRecur != nil {
		if err := p.OnRecur(p, tyme); err != nil {
			return task.Continue, err
		}
	}
	if p.Runs > 0 && p.recurs >= p.Runs {
		return task.Complete, nil
	}
	return task.Continue, nil
}

func (p *Probe) Close() error {
	p.Events = append(p.Events, Event{Phase: "close", Tyme: p.now()})
	return p.CloseErr
}

func (p *Probe) Exit() error {
	p.Events = append(p.Events, Event{Phase: "exit", Tyme: p.now()})
	return p.ExitErr
}

// Count returns how many times phase was observed.
func (p *Probe) Count(phase string) int {
	n := 0
	for _, e := range p.Events {
		if e.Phase == phase {
			n++
		}
	}
	return n
}

// Tymes returns the tymes at which phase was observed, in order.
func (p *Probe) Tymes(phase string) []float64 {
	var out []float64
	for _, e := range p.Events {
		if e.Phase == phase {
			out = append(out, e.Tyme)
		}
	}
	return out
}

// Resumptions returns the tymes of enter plus every recur, the sequence a
// scheduler resumed this task at.
func (p *Probe) Resumptions() []float64 {
	var out []float64
	for _, e := range p.Events {
		if e.Phase == "enter" || e.Phase == "recur" {
			out = append(out, e.Tyme)
		}
	}
	return out
}

// Phases returns the lifecycle phases in call order.
func (p *Probe) Phases() []string {
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Phase)
	}
	return out
}
