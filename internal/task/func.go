package task

import (
	"tymeloop/internal/tyming"
)

// Options carries free-form settings for a function task.
type Options map[string]any

// Step is one resumption of a function task.
type Step func(tyme float64) (Result, error)

// Routine is what a Body hands back on Enter.
// Close and Exit are optional.
type Routine struct {
	Step  Step
	Close func() error
	Exit  func() error
}

// Body sets up a function task. It runs on Enter, after the time source has
// been injected, and returns the Routine the scheduler resumes afterwards.
type Body func(tymth tyming.Tymth, tock float64, opts Options) (Routine, error)

// Func adapts a Body into the Task contract without a bespoke type.
type Func struct {
	Base

	body Body
	opts Options
	rt   Routine
}

// NewFunc wraps body as a Task.
func NewFunc(name string, tock float64, opts Options, body Body) *Func {
	if opts == nil {
		opts = Options{}
	}
	return &Func{Base: NewBase(name, tock), body: body, opts: opts}
}

// Opts returns the options handed to the body.
func (f *Func) Opts() Options { return f.opts }

func (f *Func) Enter() error {
	if !f.Wound() {
		return ErrUnwound
	}
	if f.body == nil {
		return nil
	}
	rt, err := f.body(f.Tymth(), f.Tock(), f.opts)
	if err != nil {
		return err
	}
	f.rt = rt
	return nil
}

func (f *Func) Recur(tyme float64) (Result, error) {
	if f.rt.Step == nil {
		return Complete, nil
	}
	return f.rt.Step(tyme)
}

func (f *Func) Close() error {
	if f.rt.Close == nil {
		return nil
	}
	return f.rt.Close()
}

func (f *Func) Exit() error {
	if f.rt.Exit == nil {
		return nil
	}
	return f.rt.Exit()
}
