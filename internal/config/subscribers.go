package config

import "sync"

// subscribers fans committed configs out to buffered channels. mu is held
// across sends so a channel is never closed mid-send.
type subscribers struct {
	mu    sync.Mutex
	chans map[chan *Config]struct{}
}

func (s *subscribers) add(buffer int) (<-chan *Config, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan *Config, buffer)
	s.mu.Lock()
	if s.chans == nil {
		s.chans = map[chan *Config]struct{}{}
	}
	s.chans[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.chans, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// offer delivers cfg to every subscriber and returns how many could not
// take it even after evicting their oldest queued config.
func (s *subscribers) offer(cfg *Config) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	missed := 0
	for ch := range s.chans {
		if !offerLatest(ch, cfg) {
			missed++
		}
	}
	return missed
}

// offerLatest sends cfg without blocking. On a full buffer it evicts the
// oldest queued config once and retries.
func offerLatest(ch chan *Config, cfg *Config) bool {
	select {
	case ch <- cfg:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- cfg:
		return true
	default:
		return false
	}
}
