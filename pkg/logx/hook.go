package logx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	maxHookRecord = 2048
	maxHookValue  = 256
)

// hookState is guarded by Service.mu except for the counter.
type hookState struct {
	fn         HookFunc
	min        Level
	limit      *rate.Limiter
	suppressed atomic.Uint64
}

type hookWriter struct{ s *Service }

func (w *hookWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

func (w *hookWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	s := w.s
	s.mu.Lock()
	fn, lowest, lim := s.hook.fn, s.hook.min, s.hook.limit
	s.mu.Unlock()

	if fn == nil || level == zerolog.NoLevel || level < lowest {
		return len(p), nil
	}
	if lim != nil && !lim.Allow() {
		s.hook.suppressed.Add(1)
		return len(p), nil
	}
	if msg := renderRecord(p); msg != "" {
		fn(level, msg)
	}
	return len(p), nil
}

// renderRecord turns a zerolog JSON line into "msg k=v k=v" with keys
// sorted. Time and level are left out; the hook gets the level separately.
func renderRecord(p []byte) string {
	p = bytes.TrimSpace(p)
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return clip(string(p), maxHookRecord)
	}
	msg, _ := m[zerolog.MessageFieldName].(string)
	delete(m, zerolog.MessageFieldName)
	delete(m, zerolog.TimestampFieldName)
	delete(m, zerolog.LevelFieldName)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, clip(fmt.Sprint(m[k]), maxHookValue))
	}
	return clip(b.String(), maxHookRecord)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
