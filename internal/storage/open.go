package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	logx "tymeloop/pkg/logx"
)

// Store persists the journal of scheduler runs.
type Store interface {
	AppendRecord(ctx context.Context, r Record) error
	// Records returns the records of run in append order.
	Records(ctx context.Context, run string) ([]Record, error)
	// PutRun inserts or replaces the summary of s.Run.
	PutRun(ctx context.Context, s RunSummary) error
	// LastRun returns the most recently started run.
	LastRun(ctx context.Context) (RunSummary, bool, error)
	Close() error
}

type opener func(Config, logx.Logger) (Store, error)

var drivers = map[string]opener{
	"file":    openFile,
	"sqlite":  openSQLite,
	"sqlite3": openSQLite,
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open returns the store for cfg.Driver, or (nil, nil) when the journal is
// off ("" or "none").
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	open, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unknown journal driver %q (have %s)", cfg.Driver, strings.Join(Drivers(), ", "))
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return open(cfg, log.With(logx.String("journal", driver)))
}
