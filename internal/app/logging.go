package app

import (
	"tymeloop/internal/config"
	"tymeloop/internal/eventbus"
	logx "tymeloop/pkg/logx"
)

func mapLoggingConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Hook: logx.HookConfig{
			Enabled:    c.Hook.Enabled,
			MinLevel:   c.Hook.MinLevel,
			RatePerSec: c.Hook.RatePerSec,
		},
	}
}

// forwardLog is the logx hook: selected records become bus events and so
// end up in the journal.
func (a *App) forwardLog(level logx.Level, msg string) {
	a.bus.Publish(eventbus.Event{Type: EventLog, Data: LogEvent{Level: level.String(), Text: msg}})
}
