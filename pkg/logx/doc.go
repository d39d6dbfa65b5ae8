// Package logx is the structured logger used across tymeloop.
//
// Logger wraps zerolog with typed Field helpers and a safe zero value.
// Service owns the sinks (console, JSON file, rate limited hook) and can be
// reconfigured while loggers derived from it stay live.
package logx
