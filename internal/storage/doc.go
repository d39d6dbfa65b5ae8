// Package storage persists the run journal: one record per task lifecycle
// event and one summary per scheduler run.
//
// Drivers:
//   - file: JSON Lines, no dependencies
//   - sqlite: modernc.org/sqlite, built with -tags sqlite
package storage
