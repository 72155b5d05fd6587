package main

import (
	"errors"

	"planner/internal/planner"
	"planner/internal/task"
)

const (
	exitUser    = 1
	exitStorage = 2
)

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	return e.err.Error()
}

func (e exitError) ExitCode() int {
	return e.code
}

func (e exitError) Unwrap() error {
	return e.err
}

// classify attaches the process exit code for err: 1 for mistakes the user
// can fix on the command line, 2 for config and storage failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee exitError
	if errors.As(err, &ee) {
		return err
	}
	switch {
	case errors.Is(err, task.ErrValidation),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, planner.ErrAmbiguousID):
		return exitError{code: exitUser, err: err}
	default:
		return exitError{code: exitStorage, err: err}
	}
}
