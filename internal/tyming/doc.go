// Package tyming provides the virtual time base shared by scheduled tasks.
//
// A Clock owns a monotonically advancing scalar "tyme". Consumers never hold the
// Clock itself, only a Tymth: a closure that reads the clock's tyme at call time.
// Handing a subtree of consumers a different Tymth rebases all of them without
// walking the subtree.
//
// Nothing in this package locks. A Clock has exactly one writer (its owning
// Scheduler or test harness) and every Tymth bound to it is read-only.
package tyming
