package scheduler

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"tymeloop/internal/task"
	logx "tymeloop/pkg/logx"
)

// RunOption overrides scheduler settings for a Do call. Overrides stick:
// later runs see them too.
type RunOption func(*runSettings)

type runSettings struct {
	doers []task.Task
	limit *float64
	tyme  *float64
}

// RunTasks replaces the registered task list.
func RunTasks(doers ...task.Task) RunOption {
	return func(r *runSettings) { r.doers = doers }
}

// RunLimit sets the tyme budget; 0 or less runs without a limit.
func RunLimit(limit float64) RunOption {
	return func(r *runSettings) { r.limit = &limit }
}

// RunTyme restarts the clock at tyme.
func RunTyme(tyme float64) RunOption {
	return func(r *runSettings) { r.tyme = &tyme }
}

// Do runs the schedule to completion: Enter, then Recur until no task is left
// (unless Always), the Limit budget is spent, or ctx is cancelled; then Exit,
// force-closing whatever is still active.
//
// A task error ends the run and is returned as is after remaining tasks were
// force-closed. Cancellation returns ctx.Err().
func (s *Scheduler) Do(ctx context.Context, opts ...RunOption) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.running {
		return ErrAlreadyRunning
	}
	var rs runSettings
	for _, o := range opts {
		o(&rs)
	}
	if len(rs.doers) > 0 {
		s.doers = append([]task.Task(nil), rs.doers...)
	}
	if rs.limit != nil {
		s.cfg.Limit = *rs.limit
	}
	if rs.tyme != nil {
		if err := s.Reset(*rs.tyme); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := s.Enter(); err != nil {
		return err
	}
	defer func() {
		xerr := s.Exit()
		if err == nil {
			err = xerr
		} else if xerr != nil {
			s.log.Warn("exit after failed run", logx.Err(xerr))
		}
		s.log.Info("run finished",
			logx.Tyme(s.clock.Tyme()),
			logx.Duration("took", time.Since(start)),
			logx.Uint64("completed", s.total.Completed),
			logx.Uint64("aborted", s.total.Aborted),
		)
	}()

	pace := s.pacer()
	for {
		if err := s.Recur(); err != nil {
			return err
		}
		if s.deeds.Len() == 0 && !s.cfg.Always {
			return nil
		}
		if s.limitReached() {
			s.log.Debug("limit reached", logx.Tyme(s.clock.Tyme()), logx.Float64("limit", s.cfg.Limit))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				// Wait also fails early when the next slot lies past the
				// deadline of ctx; the run ends with the context either way.
				<-ctx.Done()
				return ctx.Err()
			}
		}
	}
}

// pacer returns a limiter allowing one cycle per tock of wall time, nil when
// cycles should run back to back.
func (s *Scheduler) pacer() *rate.Limiter {
	if !s.cfg.Real || s.cfg.Tock <= 0 {
		return nil
	}
	every := time.Duration(s.cfg.Tock * float64(time.Second))
	if every <= 0 {
		return nil
	}
	lim := rate.NewLimiter(rate.Every(every), 1)
	// Spend the initial burst so the first Wait already paces.
	lim.Allow()
	return lim
}
