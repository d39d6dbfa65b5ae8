package config

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Task kinds understood by the runner.
const (
	KindTicker = "ticker"
	KindCron   = "cron"
	KindGroup  = "group"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`

	// Journal is optional; nil disables run journaling.
	Journal *JournalConfig `json:"journal,omitempty"`

	Tasks []TaskConfig `json:"tasks"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Hook    LoggingHook `json:"hook"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingHook forwards records at or above MinLevel to the lifecycle bus.
type LoggingHook struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SchedulerConfig configures the root scheduler. Tyme values are unitless;
// in real mode one tyme unit is paced as one second.
//
// Limit 0 disables the run budget.
type SchedulerConfig struct {
	Name   string  `json:"name,omitempty"`
	Tyme   float64 `json:"tyme"`
	Tock   float64 `json:"tock"`
	Real   bool    `json:"real"`
	Limit  float64 `json:"limit"`
	Always bool    `json:"always"`
}

// JournalConfig controls the run journal.
//
// Example:
//
//	"journal": { "driver": "file", "path": "./tymeloop_journal" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// TaskConfig declares one node of the task tree.
//
// Fields by kind:
//   - ticker: tock, count (0 = until stopped), message
//   - cron:   schedule, epoch (RFC3339 or "now"), count (max fires), tock (default 1)
//   - group:  tock, always, children
type TaskConfig struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Tock     *float64     `json:"tock,omitempty"`
	Count    int          `json:"count,omitempty"`
	Message  string       `json:"message,omitempty"`
	Schedule string       `json:"schedule,omitempty"`
	Epoch    string       `json:"epoch,omitempty"`
	Spread   string       `json:"spread,omitempty"` // Go duration string (cron intervals)
	Always   bool         `json:"always,omitempty"`
	Children []TaskConfig `json:"children,omitempty"`
}

// NormalizedKind returns the lower-cased kind, ticker when empty.
func (t TaskConfig) NormalizedKind() string {
	k := strings.ToLower(strings.TrimSpace(t.Kind))
	if k == "" {
		return KindTicker
	}
	return k
}

// TockOr returns the configured tock or def when omitted.
func (t TaskConfig) TockOr(def float64) float64 {
	if t.Tock == nil {
		return def
	}
	return *t.Tock
}

// UnmarshalJSON disallows unknown fields inside task nodes so a typo in a
// nested child is caught on reload.
func (t *TaskConfig) UnmarshalJSON(b []byte) error {
	type plain TaskConfig
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var p plain
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*t = TaskConfig(p)
	return nil
}
