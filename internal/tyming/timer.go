package tyming

// Timer measures a duration of tyme against a bound clock.
//
// It is the building block for run budgets and task-local timeouts: start it,
// then poll Expired from inside Recur.
type Timer struct {
	Tymee

	duration float64
	start    float64
}

// NewTimer returns a timer started at the current tyme of tymth.
// With a nil tymth the timer is unwound and starts on the first Wind.
func NewTimer(tymth Tymth, duration float64) *Timer {
	if duration < 0 {
		duration = 0
	}
	t := &Timer{duration: duration}
	t.Wind(tymth)
	return t
}

// Wind rebinds the timer and restarts it at the new clock's tyme.
func (t *Timer) Wind(tymth Tymth) {
	t.Tymee.Wind(tymth)
	if now, ok := t.Tyme(); ok {
		t.start = now
	}
}

func (t *Timer) Duration() float64 { return t.duration }
func (t *Timer) Start() float64    { return t.start }

// Restart restarts the timer at the current tyme keeping the duration.
func (t *Timer) Restart() {
	if now, ok := t.Tyme(); ok {
		t.start = now
	}
}

// Reset restarts the timer with a new duration.
func (t *Timer) Reset(duration float64) {
	if duration < 0 {
		duration = 0
	}
	t.duration = duration
	t.Restart()
}

// Elapsed is the tyme since the timer started; 0 when unwound.
func (t *Timer) Elapsed() float64 {
	now, ok := t.Tyme()
	if !ok {
		return 0
	}
	return now - t.start
}

// Remaining is the tyme left before expiry, negative once past.
func (t *Timer) Remaining() float64 {
	return t.duration - t.Elapsed()
}

// Expired reports whether the duration has fully elapsed.
// An unwound timer never expires.
func (t *Timer) Expired() bool {
	if !t.Wound() {
		return false
	}
	return t.Elapsed() >= t.duration
}
