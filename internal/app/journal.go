package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tymeloop/internal/config"
	"tymeloop/internal/eventbus"
	"tymeloop/internal/storage"
	"tymeloop/internal/task/cron"
	"tymeloop/internal/task/scheduler"
	logx "tymeloop/pkg/logx"
)

const defaultBusyTimeout = time.Second

func mapJournalConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Journal == nil {
		return storage.Config{}, false, nil
	}
	jc := cfg.Journal
	driver := strings.ToLower(strings.TrimSpace(jc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(jc.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("journal.path is required when journal.driver=%s", driver)
	}
	busy, err := config.ParseDurationOrDefault("journal.busy_timeout", jc.BusyTimeout, defaultBusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
}

// journal copies bus events of one run into the store.
type journal struct {
	store storage.Store
	log   logx.Logger
	run   string
}

// consume writes events until ctx is done, then drains what is already
// buffered so the tail of the run is not lost.
func (j *journal) consume(ctx context.Context, events <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return nil
					}
					j.write(e)
				default:
					return nil
				}
			}
		case e, ok := <-events:
			if !ok {
				return nil
			}
			j.write(e)
		}
	}
}

func (j *journal) write(e eventbus.Event) {
	r, ok := j.record(e)
	if !ok {
		return
	}
	// The journal outlives the run context; writes use their own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := j.store.AppendRecord(ctx, r); err != nil {
		j.log.Warn("journal append failed", logx.String("event", e.Type), logx.Err(err))
	}
}

func (j *journal) record(e eventbus.Event) (storage.Record, bool) {
	r := storage.Record{At: e.Time, Run: j.run, Event: e.Type, Tyme: e.Tyme}
	switch d := e.Data.(type) {
	case scheduler.TaskEvent:
		r.Scope, r.Task, r.Outcome = d.Scope, d.Task, d.Outcome
	case TickEvent:
		r.Scope, r.Task = "ticker", d.Task
		r.Detail = fmt.Sprintf("n=%d %s", d.N, d.Message)
	case cron.Fire:
		r.Scope, r.Task = "cron", d.Task
		r.Detail = fmt.Sprintf("run=%d at=%s", d.Run, d.At.UTC().Format(time.RFC3339))
	case LogEvent:
		r.Scope, r.Outcome, r.Detail = "log", d.Level, d.Text
	default:
		return storage.Record{}, false
	}
	return r, true
}
