// Package cron provides a task that fires a job on a cron or interval
// schedule measured in virtual tyme.
//
// Tyme is mapped onto wall-clock time as epoch + tyme seconds, so a schedule
// like "*/5 * * * *" fires every 300 tyme units when the epoch sits on a
// minute boundary. Fires that were missed between two resumptions are
// coalesced into one.
package cron
