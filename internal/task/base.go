package task

import (
	"fmt"

	"tymeloop/internal/tyming"
)

// Base is the embeddable default Task implementation.
//
// Enter, Close and Exit are no-ops and Recur completes on its first call, so an
// embedding type usually overrides Recur only.
type Base struct {
	tyming.Tymee

	name string
	tock float64
	done Outcome
}

// NewBase returns a Base with the given name and tock.
// A negative tock is treated as 0.
func NewBase(name string, tock float64) Base {
	if tock < 0 {
		tock = 0
	}
	return Base{name: name, tock: tock}
}

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Tock() float64 { return b.tock }

// SetTock changes the re-invocation interval. It takes effect the next time
// the scheduler computes a retyme.
func (b *Base) SetTock(tock float64) error {
	if tock < 0 {
		return fmt.Errorf("%w: got %v", ErrNegativeTock, tock)
	}
	b.tock = tock
	return nil
}

func (b *Base) Done() Outcome     { return b.done }
func (b *Base) SetDone(o Outcome) { b.done = o }

func (b *Base) Enter() error                       { return nil }
func (b *Base) Recur(tyme float64) (Result, error) { return Complete, nil }
func (b *Base) Close() error                       { return nil }
func (b *Base) Exit() error                        { return nil }
