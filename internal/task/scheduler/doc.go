// Package scheduler drives tasks cooperatively on a virtual time base.
//
// A Scheduler owns a Clock and a list of registered tasks ("doers"). While
// running it keeps one deed per active task: the task plus the tyme at which
// it is next due ("retyme"). Each Recur call is one pass: every due deed is
// resumed exactly once, in activation order, then the clock advances by one
// tock.
//
// Group is a Task that runs the same pass algorithm over its own children, so
// schedules nest into a tree. Winding a Group rebinds the time source of its
// whole subtree.
//
// Nothing here is safe for concurrent use. All calls for one Scheduler (and
// the tasks under it) must come from a single goroutine; tasks that need I/O
// poll non-blocking resources from Recur and return Continue.
package scheduler
