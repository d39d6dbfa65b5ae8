package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tymeloop/internal/config"
	"tymeloop/internal/eventbus"
	"tymeloop/internal/runtime/supervisor"
	"tymeloop/internal/storage"
	"tymeloop/internal/task/scheduler"
	logx "tymeloop/pkg/logx"
)

const (
	busBuffer       = 4096
	shutdownTimeout = 10 * time.Second
)

// App owns one scheduler run built from a config file.
type App struct {
	cfgm  *config.Manager
	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	sched *scheduler.Scheduler
	sup   *supervisor.Supervisor

	watch bool
	runID string
}

type Option func(*App)

// WithoutWatch disables config hot reload.
func WithoutWatch() Option {
	return func(a *App) { a.watch = false }
}

// New loads cfgPath and builds every component. Nothing runs until Run.
func New(cfgPath string, opts ...Option) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{cfgm: cfgm, watch: true, bus: eventbus.New()}
	for _, o := range opts {
		o(a)
	}

	logSvc, log, err := logx.New(mapLoggingConfig(cfg.Logging))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("logging: %w", err)
	}
	logSvc.SetHook(a.forwardLog)
	a.logs = logSvc
	a.log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	if sc, enabled, err := mapJournalConfig(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "journal")))
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.store = st
		a.log.Info("journal enabled", logx.String("driver", sc.Driver))
	}

	b := builder{log: log.With(logx.String("comp", "task")), bus: a.bus}
	doers, err := b.build(cfg.Tasks)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	sc := cfg.Scheduler
	name := firstNonEmpty(strings.TrimSpace(sc.Name), "root")
	a.sched = scheduler.New(scheduler.Config{
		Tyme:   sc.Tyme,
		Tock:   sc.Tock,
		Real:   sc.Real,
		Limit:  sc.Limit,
		Always: sc.Always,
	}, log.With(logx.String("comp", "scheduler")),
		scheduler.WithName(name),
		scheduler.WithBus(a.bus),
		scheduler.WithDoers(doers...),
	)

	// A reload is only accepted if its task tree builds.
	cfgm.SetValidator(func(_ context.Context, next *config.Config) error {
		_, err := builder{log: logx.Nop()}.build(next.Tasks)
		return err
	})
	return a, nil
}

func (a *App) Logger() logx.Logger             { return a.log }
func (a *App) Bus() eventbus.Bus               { return a.bus }
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }
func (a *App) RunID() string                   { return a.runID }

// Status is a diagnostics view of the app.
type Status struct {
	Run        string
	Scheduler  scheduler.Snapshot
	Goroutines []supervisor.Stats
}

// Status reads the scheduler snapshot without locking; call it once Run has
// returned.
func (a *App) Status() Status {
	st := Status{Run: a.runID, Scheduler: a.sched.Snapshot()}
	if a.sup != nil {
		st.Goroutines = a.sup.Stats()
	}
	return st
}

// Run drives the scheduler to completion, journaling lifecycle events and
// applying config reloads until the run ends or ctx is cancelled. A task
// error ends the run and is returned.
func (a *App) Run(ctx context.Context) error {
	started := time.Now()
	a.runID = fmt.Sprintf("%s-%d", a.sched.Name(), started.UnixNano())
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	log := a.log.With(logx.String("run", a.runID))

	events, unsubscribe := a.bus.Subscribe(busBuffer, "scheduler.", "task.", "app.")
	defer unsubscribe()

	if a.store != nil {
		a.putRun(storage.RunSummary{Run: a.runID, Started: started, Tyme: a.sched.Tyme()})
		j := &journal{store: a.store, log: log, run: a.runID}
		a.sup.Go("journal", func(c context.Context) error { return j.consume(c, events) })
	} else {
		unsubscribe()
	}

	if a.watch {
		a.sup.GoRestart("config.watch", a.cfgm.Watch)
		updates, stop := a.cfgm.Subscribe(4)
		a.sup.Go("config.apply", func(c context.Context) error {
			defer stop()
			a.applyUpdates(c, updates)
			return nil
		})
	}

	var runErr error
	a.sup.GoMain("scheduler", func(c context.Context) error {
		err := a.sched.Do(c)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Info("run cancelled", logx.Tyme(a.sched.Tyme()))
			return nil
		}
		runErr = err
		return err
	})
	log.Info("run started", logx.Int("doers", len(a.sched.Doers())), logx.Bool("real", a.sched.Config().Real))

	waitCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := a.sup.Wait(waitCtx)
	if runErr != nil {
		// The task error itself, not the supervisor's labelled copy.
		err = runErr
	}

	snap := a.sched.Snapshot()
	if a.store != nil {
		sum := storage.RunSummary{
			Run:       a.runID,
			Started:   started,
			Finished:  time.Now(),
			Tyme:      snap.Tyme,
			Entered:   snap.Counters.Entered,
			Completed: snap.Counters.Completed,
			Aborted:   snap.Counters.Aborted,
		}
		if err != nil {
			sum.Err = err.Error()
		}
		a.putRun(sum)
	}
	log.Info("run ended",
		logx.Tyme(snap.Tyme),
		logx.Uint64("completed", snap.Counters.Completed),
		logx.Uint64("aborted", snap.Counters.Aborted),
		logx.Uint64("events_dropped", a.bus.Dropped()),
		logx.Duration("took", time.Since(started)),
	)
	return err
}

func (a *App) putRun(sum storage.RunSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.store.PutRun(ctx, sum); err != nil {
		a.log.Warn("journal run summary failed", logx.String("run", sum.Run), logx.Err(err))
	}
}

// applyUpdates applies logging changes live. Scheduler, journal and task
// changes are only reported; they take effect on the next run.
func (a *App) applyUpdates(ctx context.Context, updates <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-updates:
			if !ok {
				return
			}
			// Coalesce bursts to the newest config.
			for drained := false; !drained; {
				select {
				case newer := <-updates:
					if newer != nil {
						next = newer
					}
				default:
					drained = true
				}
			}
			sections, attrs := config.SummarizeConfigChange(last, next)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			if config.LoggingChanged(last.Logging, next.Logging) {
				if err := a.logs.Apply(mapLoggingConfig(next.Logging)); err != nil {
					a.log.Warn("logging reload incomplete", logx.Err(err))
				}
			}
			for _, s := range sections {
				if s != "logging" {
					a.log.Warn("config section changed; restart required", logx.String("section", s))
				}
			}
			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config reloaded", fields...)
			last = next
		}
	}
}

// Close releases the journal and log files.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}
