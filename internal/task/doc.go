// Package task defines the lifecycle contract shared by every cooperatively
// scheduled unit of work.
//
// A task is driven through enter -> recur* -> (close) -> exit by a scheduler
// (internal/task/scheduler). Recur reports Continue to be called again after
// Tock() tyme, or Complete to finish cleanly. Close runs only on a clean
// finish; Exit always runs last, including on forced removal.
//
// Most tasks embed Base and override Recur (and optionally Enter, Close, Exit).
// Func adapts a plain function into the same contract.
package task
