package navigation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStepNotFound indicates that a page declares no step to the next page
	ErrStepNotFound = errors.New("navigation step not found")

	// ErrStepFailed indicates that a step action returned an error
	ErrStepFailed = errors.New("navigation step failed")

	// ErrUnknownKind indicates that no factory is registered for a kind
	ErrUnknownKind = errors.New("unknown page kind")

	// ErrPrerequisiteCycle indicates that a prerequisite chain revisits a kind
	ErrPrerequisiteCycle = errors.New("prerequisite cycle")

	// ErrUnreachable indicates that a chain ended at a page that is neither
	// a root nor displayed
	ErrUnreachable = errors.New("page unreachable")

	// ErrMissingParam indicates that a required parameter was not supplied
	ErrMissingParam = errors.New("missing parameter")
)

// StepNotFoundError is returned when the current page has no step that
// leads to the destination page. No action is taken for the hop.
type StepNotFoundError struct {
	Current     Kind
	Destination Kind
	Candidates  []string
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("no step from %s to %s; available steps: [%s]",
		e.Current, e.Destination, strings.Join(e.Candidates, ", "))
}

func (e *StepNotFoundError) Is(target error) bool {
	return target == ErrStepNotFound
}

// StepExecutionError is returned when the selected step failed. Err holds the
// cause reported by the action.
type StepExecutionError struct {
	Current     Kind
	Destination Kind
	Step        string
	Err         error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s from %s to %s failed: %v", e.Step, e.Current, e.Destination, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

func (e *StepExecutionError) Is(target error) bool {
	return target == ErrStepFailed
}

// IsStepNotFound returns true if err reports a missing step
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsStepFailed returns true if err reports a failed step
func IsStepFailed(err error) bool {
	return errors.Is(err, ErrStepFailed)
}
