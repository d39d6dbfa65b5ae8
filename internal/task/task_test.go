package task

import (
	"errors"
	"testing"

	"tymeloop/internal/tyming"
)

func TestBaseDefaults(t *testing.T) {
	t.Parallel()
	b := NewBase("idle", -1)
	if b.Tock() != 0 {
		t.Fatalf("Tock = %v, want clamp to 0", b.Tock())
	}
	if err := b.SetTock(-0.5); !errors.Is(err, ErrNegativeTock) {
		t.Fatalf("SetTock(-0.5) err = %v", err)
	}
	if err := b.SetTock(0.5); err != nil || b.Tock() != 0.5 {
		t.Fatalf("SetTock(0.5) = %v, tock=%v", err, b.Tock())
	}
	if b.Done() != Pending {
		t.Fatalf("Done = %v, want pending", b.Done())
	}
	res, err := b.Recur(0)
	if err != nil || res != Complete {
		t.Fatalf("Recur = %v, %v; want complete", res, err)
	}
	var zero Result
	if zero != Complete {
		t.Fatal("zero Result must mean complete")
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	b := NewBase("named", 0)
	if got := Name(&b); got != "named" {
		t.Fatalf("Name = %q", got)
	}
	anon := NewBase("", 0)
	if got := Name(&anon); got != "*task.Base" {
		t.Fatalf("Name(anon) = %q", got)
	}
	if got := Name(nil); got != "<nil>" {
		t.Fatalf("Name(nil) = %q", got)
	}
}

func TestFuncLifecycle(t *testing.T) {
	t.Parallel()
	clock := tyming.NewClock(0, 1)

	var (
		gotTock float64
		gotOpt  any
		steps   []float64
		closed  bool
		exited  bool
	)
	f := NewFunc("counter", 0.5, Options{"limit": 2}, func(tymth tyming.Tymth, tock float64, opts Options) (Routine, error) {
		gotTock = tock
		gotOpt = opts["limit"]
		limit := opts["limit"].(int)
		return Routine{
			Step: func(tyme float64) (Result, error) {
				steps = append(steps, tyme)
				if len(steps) >= limit {
					return Complete, nil
				}
				return Continue, nil
			},
			Close: func() error { closed = true; return nil },
			Exit:  func() error { exited = true; return nil },
		}, nil
	})

	if err := f.Enter(); !errors.Is(err, ErrUnwound) {
		t.Fatalf("Enter unwound err = %v, want ErrUnwound", err)
	}
	f.Wind(clock.Tymen())
	if err := f.Enter(); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if gotTock != 0.5 || gotOpt != 2 {
		t.Fatalf("body saw tock=%v opt=%v", gotTock, gotOpt)
	}
	if r, _ := f.Recur(0); r != Continue {
		t.Fatalf("first Recur = %v", r)
	}
	if r, _ := f.Recur(1); r != Complete {
		t.Fatalf("second Recur = %v", r)
	}
	_ = f.Close()
	_ = f.Exit()
	if !closed || !exited {
		t.Fatalf("closed=%v exited=%v", closed, exited)
	}
	if len(steps) != 2 || steps[1] != 1 {
		t.Fatalf("steps = %v", steps)
	}
}

func TestFuncBodyError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	f := NewFunc("bad", 0, nil, func(tyming.Tymth, float64, Options) (Routine, error) {
		return Routine{}, boom
	})
	f.Wind(tyming.NewClock(0, 0).Tymen())
	if err := f.Enter(); !errors.Is(err, boom) {
		t.Fatalf("Enter err = %v, want boom", err)
	}
}
