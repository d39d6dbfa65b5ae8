//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "tymeloop/pkg/logx"
)

//go:embed migrations.sql
var migrations string

// tsLayout is fixed width so timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("journal.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())); err != nil {
			log.Debug("busy_timeout pragma failed", logx.Err(err))
		}
	}
	for _, p := range []string{"PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL"} {
		if _, err := db.Exec(p); err != nil {
			log.Debug("pragma failed", logx.String("pragma", p), logx.Err(err))
		}
	}

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendRecord(ctx context.Context, r Record) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records(at, run, scope, task, event, tyme, outcome, detail) VALUES(?,?,?,?,?,?,?,?)`,
		r.At.UTC().Format(tsLayout), r.Run, r.Scope, nullStr(r.Task), r.Event, r.Tyme, nullStr(r.Outcome), nullStr(r.Detail),
	)
	return err
}

func (s *sqliteStore) Records(ctx context.Context, run string) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, run, scope, task, event, tyme, outcome, detail FROM records WHERE run = ? ORDER BY id`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                     Record
			at                    string
			task, outcome, detail sql.NullString
		)
		if err := rows.Scan(&at, &r.Run, &r.Scope, &task, &r.Event, &r.Tyme, &outcome, &detail); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(tsLayout, at)
		r.Task = task.String
		r.Outcome = outcome.String
		r.Detail = detail.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PutRun(ctx context.Context, sum RunSummary) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(sum.Run) == "" {
		return errors.New("run id required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run, started, finished, tyme, entered, completed, aborted, err)
		 VALUES(?,?,?,?,?,?,?,?)
		 ON CONFLICT(run) DO UPDATE SET
		   finished=excluded.finished, tyme=excluded.tyme, entered=excluded.entered,
		   completed=excluded.completed, aborted=excluded.aborted, err=excluded.err`,
		sum.Run, sum.Started.UTC().Format(tsLayout), nullTime(sum.Finished), sum.Tyme,
		int64(sum.Entered), int64(sum.Completed), int64(sum.Aborted), nullStr(sum.Err),
	)
	return err
}

func (s *sqliteStore) LastRun(ctx context.Context) (RunSummary, bool, error) {
	if s == nil || s.db == nil {
		return RunSummary{}, false, ErrDisabled
	}
	var (
		sum                RunSummary
		started            string
		finished, errText  sql.NullString
		entered, completed int64
		aborted            int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run, started, finished, tyme, entered, completed, aborted, err
		 FROM runs ORDER BY started DESC, run DESC LIMIT 1`,
	).Scan(&sum.Run, &started, &finished, &sum.Tyme, &entered, &completed, &aborted, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, false, nil
	}
	if err != nil {
		return RunSummary{}, false, err
	}
	sum.Started, _ = time.Parse(tsLayout, started)
	if finished.Valid {
		sum.Finished, _ = time.Parse(tsLayout, finished.String)
	}
	sum.Entered, sum.Completed, sum.Aborted = uint64(entered), uint64(completed), uint64(aborted)
	sum.Err = errText.String
	return sum, true, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(tsLayout)
}
