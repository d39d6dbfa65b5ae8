package tyming

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeTock  = errors.New("tyming: tock must be >= 0")
	ErrTymeBackwards = errors.New("tyming: tyme may not decrease")
)

// Tymth returns the current tyme of the clock it was produced from.
type Tymth func() float64

// Clock is a virtual time source.
type Clock struct {
	tyme float64
	tock float64
}

// NewClock returns a clock starting at tyme that advances by tock per Tick.
// A negative tock is clamped to zero.
func NewClock(tyme, tock float64) *Clock {
	if tock < 0 {
		tock = 0
	}
	return &Clock{tyme: tyme, tock: tock}
}

func (c *Clock) Tyme() float64 { return c.tyme }
func (c *Clock) Tock() float64 { return c.tock }

// SetTock changes the default step.
func (c *Clock) SetTock(tock float64) error {
	if tock < 0 {
		return fmt.Errorf("%w: got %v", ErrNegativeTock, tock)
	}
	c.tock = tock
	return nil
}

// SetTyme moves the clock forward to tyme.
func (c *Clock) SetTyme(tyme float64) error {
	if tyme < c.tyme {
		return fmt.Errorf("%w: %v < %v", ErrTymeBackwards, tyme, c.tyme)
	}
	c.tyme = tyme
	return nil
}

// Tick advances tyme by the default tock.
func (c *Clock) Tick() {
	c.tyme += c.tock
}

// TickBy advances tyme by an explicit step.
func (c *Clock) TickBy(tock float64) error {
	if tock < 0 {
		return fmt.Errorf("%w: got %v", ErrNegativeTock, tock)
	}
	c.tyme += tock
	return nil
}

// Tymen returns a Tymth bound to this clock. The closure reads tyme when
// called, so every consumer sees later ticks.
func (c *Clock) Tymen() Tymth {
	return func() float64 { return c.tyme }
}
