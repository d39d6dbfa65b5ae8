package config

import (
	"sort"
	"strings"

	logx "tymeloop/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and compact
// structured attrs for logging the change.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if LoggingChanged(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.hook_enabled", newCfg.Logging.Hook.Enabled),
		)
	}

	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Float64("scheduler.tock", newCfg.Scheduler.Tock),
			logx.Float64("scheduler.limit", newCfg.Scheduler.Limit),
			logx.Bool("scheduler.real", newCfg.Scheduler.Real),
			logx.Bool("scheduler.always", newCfg.Scheduler.Always),
		)
	}

	// Nil means disabled.
	if oj, nj := journalOrZero(oldCfg.Journal), journalOrZero(newCfg.Journal); oj != nj {
		changed = append(changed, "journal")
		attrs = append(attrs,
			logx.String("journal.driver", nj.Driver),
			logx.String("journal.path", nj.Path),
			logx.String("journal.busy_timeout", nj.BusyTimeout),
		)
	}

	if fingerprint(oldCfg.Tasks) != fingerprint(newCfg.Tasks) {
		changed = append(changed, "tasks")
		attrs = append(attrs, logx.Int("tasks.count", countTasks(newCfg.Tasks)))
	}

	sort.Strings(changed)
	return changed, attrs
}

// LoggingChanged reports whether the logging section differs.
func LoggingChanged(a, b LoggingConfig) bool {
	return a.Level != b.Level ||
		a.Console != b.Console ||
		a.File.Enabled != b.File.Enabled ||
		strings.TrimSpace(a.File.Path) != strings.TrimSpace(b.File.Path) ||
		a.Hook != b.Hook
}

// journalOrZero trims j for comparison. Nil means disabled.
func journalOrZero(j *JournalConfig) JournalConfig {
	if j == nil {
		return JournalConfig{}
	}
	return JournalConfig{
		Driver:      strings.ToLower(strings.TrimSpace(j.Driver)),
		Path:        strings.TrimSpace(j.Path),
		BusyTimeout: strings.TrimSpace(j.BusyTimeout),
	}
}

// countTasks counts every node of the tree, groups included.
func countTasks(ts []TaskConfig) int {
	n := 0
	for _, t := range ts {
		n += 1 + countTasks(t.Children)
	}
	return n
}
