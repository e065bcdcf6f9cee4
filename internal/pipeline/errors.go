package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is returned synchronously by Start when a request cannot
// become a task.
var ErrValidation = errors.New("validation error")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// stageError tags a failure with the stage it happened in. Its message is
// what polling clients see.
type stageError struct {
	stage string
	op    string
	err   error
}

func (e *stageError) Error() string {
	parts := []string{e.stage}
	if op := strings.TrimSpace(e.op); op != "" {
		parts = append(parts, op)
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *stageError) Unwrap() error {
	return e.err
}

func wrapStage(stage, op string, err error) error {
	return &stageError{stage: stage, op: op, err: err}
}
