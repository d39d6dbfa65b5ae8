package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger not reported as zero")
	}
	l.With(String("k", "v")).Info("dropped")
	if Nop().IsZero() {
		t.Fatal("Nop reported as zero")
	}
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("comp", "test"))
	l.Debug("hello", Int("n", 2), Tyme(1.5))
	l.Trace("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["message"] != "hello" || rec["comp"] != "test" || rec["n"] != 2.0 || rec["tyme"] != 1.5 {
		t.Fatalf("record = %v", rec)
	}
	if c, _ := rec["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Fatalf("caller = %q", c)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]Level{
		"":        LevelInfo,
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		" error ": LevelError,
		"loud":    LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in, LevelInfo); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

type hookRecord struct {
	level Level
	msg   string
}

func TestServiceHookSink(t *testing.T) {
	t.Parallel()
	svc, log, err := New(Config{Level: "debug", Hook: HookConfig{Enabled: true, MinLevel: "warn", RatePerSec: 2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	var (
		mu  sync.Mutex
		got []hookRecord
	)
	svc.SetHook(func(level Level, msg string) {
		mu.Lock()
		got = append(got, hookRecord{level, msg})
		mu.Unlock()
	})

	log.Info("below threshold")
	log.Warn("disk low", String("b", "2"), String("a", "1"))
	log.Error("second")
	log.Error("over the rate")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("hook records = %+v", got)
	}
	if got[0].level != LevelWarn || !strings.HasPrefix(got[0].msg, "disk low a=1 b=2") {
		t.Fatalf("first record = %+v", got[0])
	}
	if svc.Suppressed() != 1 {
		t.Fatalf("Suppressed = %d, want 1", svc.Suppressed())
	}
}

func TestServiceFileSinkAndApply(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "run.log")
	svc, log, err := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := log.With(String("comp", "x"))
	child.Debug("filtered")
	child.Info("kept")

	if err := svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	child.Debug("now visible")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "filtered") || !strings.Contains(out, "kept") || !strings.Contains(out, "now visible") {
		t.Fatalf("log file = %s", out)
	}
}

func TestServiceBadFilePath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	svc, log, err := New(Config{Level: "error", File: FileConfig{Enabled: true, Path: filepath.Join(dir, "missing", "x.log")}})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	log.Info("still usable")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close without file: %v", err)
	}
}

func TestRenderRecord(t *testing.T) {
	t.Parallel()
	got := renderRecord([]byte(`{"level":"warn","time":"x","message":"m","z":1,"a":"b"}` + "\n"))
	if got != "m a=b z=1" {
		t.Fatalf("renderRecord = %q", got)
	}
	if got := renderRecord([]byte("not json")); got != "not json" {
		t.Fatalf("raw = %q", got)
	}
	if got := clip(strings.Repeat("x", 20), 10); len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("clip = %q", got)
	}
}
