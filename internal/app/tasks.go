package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tymeloop/internal/config"
	"tymeloop/internal/eventbus"
	"tymeloop/internal/task"
	"tymeloop/internal/task/cron"
	"tymeloop/internal/task/scheduler"
	"tymeloop/internal/tyming"
	logx "tymeloop/pkg/logx"
)

// Event types published by configured tasks.
const (
	EventTick      = "app.tick"
	EventCronFired = "app.cron_fired"
	EventLog       = "app.log"
)

// TickEvent is the Data payload of EventTick.
type TickEvent struct {
	Task    string
	N       int
	Message string
}

// LogEvent is the Data payload of EventLog.
type LogEvent struct {
	Level string
	Text  string
}

type builder struct {
	log logx.Logger
	bus eventbus.Bus
	now func() time.Time
}

func (b builder) publish(e eventbus.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}

// build turns the configured tree into tasks, in declaration order.
func (b builder) build(specs []config.TaskConfig) ([]task.Task, error) {
	out := make([]task.Task, 0, len(specs))
	for _, spec := range specs {
		t, err := b.buildOne(spec)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", spec.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (b builder) buildOne(spec config.TaskConfig) (task.Task, error) {
	switch spec.NormalizedKind() {
	case config.KindTicker:
		return b.ticker(spec), nil
	case config.KindCron:
		return b.cron(spec)
	case config.KindGroup:
		children, err := b.build(spec.Children)
		if err != nil {
			return nil, err
		}
		g := scheduler.NewGroup(spec.Name, spec.TockOr(0), children...)
		g.SetLogger(b.log)
		g.SetBus(b.bus)
		g.SetAlways(spec.Always)
		return g, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
}

// ticker logs its message every tock and completes after count runs.
func (b builder) ticker(spec config.TaskConfig) task.Task {
	opts := task.Options{"count": spec.Count, "message": spec.Message}
	log := b.log.With(logx.String("task", spec.Name))
	return task.NewFunc(spec.Name, spec.TockOr(0), opts, func(_ tyming.Tymth, _ float64, opts task.Options) (task.Routine, error) {
		count, _ := opts["count"].(int)
		msg, _ := opts["message"].(string)
		if msg == "" {
			msg = "tick"
		}
		n := 0
		return task.Routine{
			Step: func(tyme float64) (task.Result, error) {
				n++
				log.Info(msg, logx.Tyme(tyme), logx.Int("n", n))
				b.publish(eventbus.Event{Type: EventTick, Tyme: tyme, Data: TickEvent{Task: spec.Name, N: n, Message: msg}})
				if count > 0 && n >= count {
					return task.Complete, nil
				}
				return task.Continue, nil
			},
		}, nil
	})
}

func (b builder) cron(spec config.TaskConfig) (task.Task, error) {
	epoch, err := b.epoch(spec.Epoch)
	if err != nil {
		return nil, err
	}
	spread, err := config.ParseDurationField("spread", spec.Spread)
	if err != nil {
		return nil, err
	}
	msg := spec.Message
	job := func(_ context.Context, f cron.Fire) error {
		b.log.Info(firstNonEmpty(msg, "cron fired"),
			logx.String("task", f.Task),
			logx.Tyme(f.Tyme),
			logx.Time("at", f.At),
			logx.Int("run", f.Run),
		)
		b.publish(eventbus.Event{Type: EventCronFired, Tyme: f.Tyme, Data: f})
		return nil
	}
	return cron.New(spec.Name, spec.Schedule, job,
		cron.WithEpoch(epoch),
		cron.WithTock(spec.TockOr(cron.DefaultTock)),
		cron.WithMaxRuns(spec.Count),
		cron.WithSpread(spread),
		cron.WithLogger(b.log),
	)
}

// epoch reads an RFC3339 timestamp; empty or "now" means the current second.
func (b builder) epoch(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "now") {
		now := time.Now
		if b.now != nil {
			now = b.now
		}
		return now().Truncate(time.Second), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch: %w", err)
	}
	return t, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
