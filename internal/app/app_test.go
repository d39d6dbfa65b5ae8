package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tymeloop/internal/config"
	"tymeloop/internal/storage"
	"tymeloop/internal/task"
	"tymeloop/internal/task/cron"
	"tymeloop/internal/task/scheduler"
	logx "tymeloop/pkg/logx"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "tymeloop.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunJournalsLifecycle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal")
	path := writeConfig(t, dir, `
logging:
  level: warn
scheduler:
  tock: 1
  limit: 10
journal:
  driver: file
  path: `+journalPath+`
tasks:
  - name: beat
    tock: 1
    count: 2
    message: beat
  - name: batch
    kind: group
    children:
      - name: nightly
        kind: cron
        schedule: every:3s
        epoch: "2024-01-01T00:00:00Z"
        count: 1
      - name: forever
        tock: 2
`)

	a, err := New(path, WithoutWatch())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	run := a.RunID()
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err := storage.Open(storage.Config{Driver: "file", Path: journalPath}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer st.Close()

	last, ok, err := st.LastRun(context.Background())
	if err != nil || !ok {
		t.Fatalf("LastRun: ok=%v err=%v", ok, err)
	}
	// beat and nightly complete; forever and the group are cut off at the limit.
	if last.Run != run || !last.Done() || last.Tyme != 10 || last.Completed != 1 || last.Aborted != 1 {
		t.Fatalf("run summary = %+v", last)
	}

	recs, err := st.Records(context.Background(), run)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	seen := map[string]int{}
	for _, r := range recs {
		seen[r.Event+":"+r.Task]++
	}
	for _, key := range []string{
		scheduler.EventTaskCompleted + ":beat",
		scheduler.EventTaskCompleted + ":nightly",
		scheduler.EventTaskAborted + ":forever",
		scheduler.EventTaskAborted + ":batch",
		EventCronFired + ":nightly",
	} {
		if seen[key] != 1 {
			t.Fatalf("journal %s count = %d; records: %+v", key, seen[key], recs)
		}
	}
	if seen[EventTick+":beat"] != 2 {
		t.Fatalf("beat ticks = %d", seen[EventTick+":beat"])
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
logging:
  level: error
scheduler:
  tock: 0.01
  real: true
  always: true
tasks:
  - name: spin
`)
	a, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Scheduler().Running() {
		t.Fatal("scheduler still running")
	}
	if st := a.Status(); st.Scheduler.Counters.Aborted != 1 {
		t.Fatalf("status = %+v", st.Scheduler)
	}
}

func TestNewRejectsBadTree(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
scheduler:
  tock: 1
tasks:
  - name: bad
    kind: cron
    schedule: "61 * * * *"
`)
	if _, err := New(path, WithoutWatch()); err == nil || !strings.Contains(err.Error(), `task "bad"`) {
		t.Fatalf("New err = %v", err)
	}
}

func TestBuilderKinds(t *testing.T) {
	t.Parallel()
	tock := 0.5
	b := builder{log: logx.Nop(), now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }}
	ts, err := b.build([]config.TaskConfig{
		{Name: "t", Count: 1},
		{Name: "c", Kind: "CRON", Schedule: "1m"},
		{Name: "g", Kind: config.KindGroup, Tock: &tock, Children: []config.TaskConfig{{Name: "k"}}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := ts[0].(*task.Func); !ok {
		t.Fatalf("ticker type = %T", ts[0])
	}
	c, ok := ts[1].(*cron.Task)
	if !ok {
		t.Fatalf("cron type = %T", ts[1])
	}
	if !c.Epoch().Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) || c.Tock() != cron.DefaultTock {
		t.Fatalf("cron epoch=%v tock=%v", c.Epoch(), c.Tock())
	}
	g, ok := ts[2].(*scheduler.Group)
	if !ok || g.Tock() != 0.5 || len(g.Doers()) != 1 {
		t.Fatalf("group = %T %+v", ts[2], ts[2])
	}
}

func TestMapJournalConfig(t *testing.T) {
	t.Parallel()
	if _, ok, err := mapJournalConfig(&config.Config{}); ok || err != nil {
		t.Fatalf("nil journal: ok=%v err=%v", ok, err)
	}
	if _, _, err := mapJournalConfig(&config.Config{Journal: &config.JournalConfig{Driver: "file"}}); err == nil {
		t.Fatal("expected error for missing path")
	}
	sc, ok, err := mapJournalConfig(&config.Config{Journal: &config.JournalConfig{Driver: "SQLite", Path: "j.db"}})
	if err != nil || !ok || sc.Driver != "sqlite" || sc.BusyTimeout != defaultBusyTimeout {
		t.Fatalf("sqlite map = %+v ok=%v err=%v", sc, ok, err)
	}
}
