//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "tymeloop/pkg/logx"
)

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, ev := range []string{"task.entered", "task.aborted"} {
		r := Record{At: base, Run: "r1", Scope: "root", Task: "a", Event: ev, Tyme: float64(i)}
		if err := st.AppendRecord(ctx, r); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}
	recs, err := st.Records(ctx, "r1")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 2 || recs[1].Event != "task.aborted" || recs[0].Outcome != "" {
		t.Fatalf("records = %+v", recs)
	}

	if err := st.PutRun(ctx, RunSummary{Run: "r1", Started: base}); err != nil {
		t.Fatalf("PutRun: %v", err)
	}
	if err := st.PutRun(ctx, RunSummary{Run: "r1", Started: base, Finished: base.Add(time.Second), Aborted: 1, Err: "boom"}); err != nil {
		t.Fatalf("PutRun: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	last, ok, err := st.LastRun(ctx)
	if err != nil || !ok {
		t.Fatalf("LastRun: ok=%v err=%v", ok, err)
	}
	if !last.Done() || last.Aborted != 1 || last.Err != "boom" {
		t.Fatalf("last run = %+v", last)
	}
}
