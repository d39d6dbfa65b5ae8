package scheduler

import "tymeloop/internal/task"

func (s *Scheduler) Snapshot() Snapshot {
	doers := make([]string, 0, len(s.doers))
	for _, t := range s.doers {
		doers = append(doers, task.Name(t))
	}

	c := s.total
	var deeds []DeedInfo
	if s.running && s.deeds != nil {
		deeds = s.deeds.info()
		c.Entered += s.deeds.counters.Entered
		c.Completed += s.deeds.counters.Completed
		c.Aborted += s.deeds.counters.Aborted
		c.Resumptions += s.deeds.counters.Resumptions
	}

	return Snapshot{
		Name:     s.name,
		Tyme:     s.clock.Tyme(),
		Tock:     s.clock.Tock(),
		Limit:    s.cfg.Limit,
		Real:     s.cfg.Real,
		Always:   s.cfg.Always,
		Running:  s.running,
		Doers:    doers,
		Deeds:    deeds,
		Counters: c,
	}
}

func (g *Group) Snapshot() Snapshot {
	doers := make([]string, 0, len(g.doers))
	for _, t := range g.doers {
		doers = append(doers, task.Name(t))
	}
	tyme, _ := g.Tyme()
	snap := Snapshot{
		Name:    g.Name(),
		Tyme:    tyme,
		Tock:    g.Tock(),
		Always:  g.always,
		Running: g.deeds != nil,
		Doers:   doers,
	}
	if g.deeds != nil {
		snap.Deeds = g.deeds.info()
		snap.Counters = g.deeds.counters
	}
	return snap
}
