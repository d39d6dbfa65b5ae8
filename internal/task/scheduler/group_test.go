package scheduler

import (
	"context"
	"errors"
	"testing"

	"tymeloop/internal/task"
	"tymeloop/internal/task/tasktest"
	"tymeloop/internal/tyming"
	logx "tymeloop/pkg/logx"
)

func TestGroupRunsChildrenOnParentTyme(t *testing.T) {
	t.Parallel()
	a := tasktest.NewProbe("a", 0, 2)
	b := tasktest.NewProbe("b", 0.25, 0)
	g := NewGroup("g", 0.5, a, b)

	s := New(Config{Tock: 0.25, Limit: 1}, logx.Nop())
	if err := s.Do(context.Background(), RunTasks(g)); err != nil {
		t.Fatalf("Do: %v", err)
	}

	assertTymes(t, "a resumptions", a.Resumptions(), []float64{0, 0, 0.5})
	assertTymes(t, "b resumptions", b.Resumptions(), []float64{0, 0, 0.5})
	if a.Done() != task.Completed || a.Count("close") != 1 {
		t.Fatalf("a done=%v close=%d", a.Done(), a.Count("close"))
	}
	assertTymes(t, "a close", a.Tymes("close"), []float64{0.5})
	if b.Done() != task.Aborted || b.Count("close") != 0 || b.Count("exit") != 1 {
		t.Fatalf("b done=%v close=%d exit=%d", b.Done(), b.Count("close"), b.Count("exit"))
	}
	if g.Done() != task.Aborted {
		t.Fatalf("g done = %v, want aborted", g.Done())
	}
	if tot := g.Totals(); tot.Completed != 1 || tot.Aborted != 1 {
		t.Fatalf("group totals = %+v", tot)
	}
}

func TestGroupCompletesWhenChildrenFinish(t *testing.T) {
	t.Parallel()
	a := tasktest.NewProbe("a", 0, 1)
	b := tasktest.NewProbe("b", 0, 2)
	g := NewGroup("g", 0, a, b)

	s := New(Config{Tock: 1}, logx.Nop())
	if err := s.Do(context.Background(), RunTasks(g)); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if g.Done() != task.Completed {
		t.Fatalf("g done = %v", g.Done())
	}
	if a.Done() != task.Completed || b.Done() != task.Completed {
		t.Fatalf("children done a=%v b=%v", a.Done(), b.Done())
	}
	if s.Tyme() != 2 {
		t.Fatalf("Tyme = %v, want 2", s.Tyme())
	}
	if len(g.Active()) != 0 {
		t.Fatalf("group still has active children")
	}
}

func TestGroupWindRebasesSubtree(t *testing.T) {
	t.Parallel()
	leaf := tasktest.NewProbe("leaf", 0, 0)
	inner := NewGroup("inner", 0, leaf)
	outer := NewGroup("outer", 0, inner)

	first := tyming.NewClock(0, 1)
	outer.Wind(first.Tymen())
	if err := outer.Enter(); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if _, err := outer.Recur(0); err != nil {
		t.Fatalf("Recur: %v", err)
	}
	if v, _ := leaf.Tyme(); v != 0 {
		t.Fatalf("leaf tyme = %v, want 0", v)
	}

	second := tyming.NewClock(100, 1)
	outer.Wind(second.Tymen())
	if v, _ := leaf.Tyme(); v != 100 {
		t.Fatalf("leaf tyme after rewind = %v, want 100", v)
	}
	second.Tick()
	if v, _ := inner.Tyme(); v != 101 {
		t.Fatalf("inner tyme = %v, want 101", v)
	}

	if _, err := outer.Recur(101); err != nil {
		t.Fatalf("Recur: %v", err)
	}
	assertTymes(t, "leaf recur", leaf.Tymes("recur"), []float64{0, 101})

	if err := outer.Exit(); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if leaf.Done() != task.Aborted || inner.Done() != task.Aborted {
		t.Fatalf("leaf=%v inner=%v", leaf.Done(), inner.Done())
	}
	assertTymes(t, "leaf exit", leaf.Tymes("exit"), []float64{101})
}

func TestGroupRemoveFromInsideChild(t *testing.T) {
	t.Parallel()
	w := tasktest.NewProbe("w", 0, 0)
	x := tasktest.NewProbe("x", 0, 2)
	y := tasktest.NewProbe("y", 0, 0)
	z := tasktest.NewProbe("z", 0, 0)
	g := NewGroup("g", 0, w, x, y, z)
	x.OnRecur = func(p *tasktest.Probe, tyme float64) error {
		if p.Count("recur") == 1 {
			return g.Remove(w, p, y, z)
		}
		return nil
	}

	s := New(Config{Tock: 1}, logx.Nop(), WithDoers(g))
	mustEnter(t, s)
	mustRecur(t, s, 1)

	if len(g.Doers()) != 0 {
		t.Fatalf("group doers = %d, want 0", len(g.Doers()))
	}
	for _, p := range []*tasktest.Probe{w, y, z} {
		if p.Done() != task.Aborted || p.Count("exit") != 1 || p.Count("close") != 0 {
			t.Fatalf("%s done=%v exit=%d close=%d", p.Name(), p.Done(), p.Count("exit"), p.Count("close"))
		}
	}
	if y.Count("recur") != 0 || z.Count("recur") != 0 {
		t.Fatal("removed children resumed in the same pass")
	}
	if x.Done() != task.Pending || g.Done() != task.Pending {
		t.Fatalf("x=%v g=%v, want both still running", x.Done(), g.Done())
	}

	mustRecur(t, s, 1)
	if x.Done() != task.Completed || x.Count("close") != 1 {
		t.Fatalf("x done=%v close=%d, want completed", x.Done(), x.Count("close"))
	}
	if g.Done() != task.Completed {
		t.Fatalf("g done = %v, want completed once children are gone", g.Done())
	}
	_ = s.Exit()
}

func TestRemoveGroupClosesChildren(t *testing.T) {
	t.Parallel()
	a := tasktest.NewProbe("a", 0, 0)
	b := tasktest.NewProbe("b", 0, 0)
	g := NewGroup("g", 0, a, b)
	s := New(Config{Tock: 1}, logx.Nop(), WithDoers(g))
	mustEnter(t, s)
	mustRecur(t, s, 1)

	if err := s.Remove(g); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if g.Done() != task.Aborted {
		t.Fatalf("g done = %v", g.Done())
	}
	for _, p := range []*tasktest.Probe{a, b} {
		if p.Done() != task.Aborted || p.Count("exit") != 1 {
			t.Fatalf("%s done=%v exit=%d", p.Name(), p.Done(), p.Count("exit"))
		}
	}
	if len(s.Active()) != 0 {
		t.Fatal("root still has active deeds")
	}
	_ = s.Exit()
}

func TestGroupExtendDuringPass(t *testing.T) {
	t.Parallel()
	late := tasktest.NewProbe("late", 0, 0)
	g := NewGroup("g", 0)
	first := tasktest.NewProbe("first", 0, 0)
	first.OnRecur = func(p *tasktest.Probe, tyme float64) error {
		if p.Count("recur") == 1 {
			return g.Extend(late)
		}
		return nil
	}
	if err := g.Extend(first); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	s := New(Config{Tock: 1}, logx.Nop(), WithDoers(g))
	mustEnter(t, s)
	mustRecur(t, s, 1)
	if late.Count("enter") != 1 || late.Count("recur") != 0 {
		t.Fatalf("late enter=%d recur=%d", late.Count("enter"), late.Count("recur"))
	}
	mustRecur(t, s, 1)
	assertTymes(t, "late recur", late.Tymes("recur"), []float64{1})
	if snap := g.Snapshot(); !snap.Running || len(snap.Deeds) != 2 {
		t.Fatalf("group snapshot = %+v", snap)
	}
	_ = s.Exit()
}

func TestGroupGuards(t *testing.T) {
	t.Parallel()
	g := NewGroup("g", 0, tasktest.NewProbe("a", 0, 0))
	if err := g.Enter(); !errors.Is(err, task.ErrUnwound) {
		t.Fatalf("Enter unwound err = %v", err)
	}
	if _, err := g.Recur(0); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Recur before Enter err = %v", err)
	}
	if err := g.Exit(); err != nil {
		t.Fatalf("Exit idle: %v", err)
	}
}

func TestGroupAlwaysOutlivesChildren(t *testing.T) {
	t.Parallel()
	g := NewGroup("g", 0, tasktest.NewProbe("a", 0, 1))
	g.SetAlways(true)
	s := New(Config{Tock: 1, Limit: 3}, logx.Nop(), WithDoers(g))
	if err := s.Do(context.Background()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if g.Done() != task.Aborted {
		t.Fatalf("g done = %v, want aborted at limit", g.Done())
	}
	if s.Tyme() != 3 {
		t.Fatalf("Tyme = %v, want 3", s.Tyme())
	}
}
