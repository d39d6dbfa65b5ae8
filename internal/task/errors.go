package task

import (
	"errors"

	"tymeloop/internal/tyming"
)

var (
	// ErrUnwound is returned when a task that needs a time source runs unbound.
	ErrUnwound = errors.New("task: no time source wound")

	ErrNegativeTock = tyming.ErrNegativeTock
)
