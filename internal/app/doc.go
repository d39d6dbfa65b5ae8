// Package app wires a config file into a running scheduler: logging, the
// lifecycle bus, the run journal and the task tree, all hosted by one
// supervisor.
package app
