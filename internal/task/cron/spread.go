package cron

import (
	"hash/fnv"
	"math/rand"
	"time"

	robcron "github.com/robfig/cron/v3"
)

// spreadSchedule overrides the first fire time of an interval schedule and
// delegates to the base schedule afterwards.
type spreadSchedule struct {
	base  robcron.Schedule
	first time.Time
}

func (s *spreadSchedule) Next(t time.Time) time.Time {
	if !s.first.IsZero() && t.Before(s.first) {
		return s.first
	}
	return s.base.Next(t)
}

// withSpread delays the first fire of an interval schedule by a jitter in
// [0, min(every, ceiling)). The jitter is derived from tag so a given task lands
// on the same tyme every run.
func withSpread(base robcron.Schedule, every, ceiling time.Duration, from time.Time, tag string) (robcron.Schedule, time.Duration) {
	limit := min(every, ceiling)
	if limit <= 0 {
		return base, 0
	}
	rng := rand.New(rand.NewSource(int64(fnv64a(tag))))
	jitter := time.Duration(rng.Int63n(int64(limit))).Truncate(time.Second)
	return &spreadSchedule{base: base, first: from.Add(every + jitter)}, jitter
}

func fnv64a(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
