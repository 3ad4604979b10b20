package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for particle dynamics construction and execution.
var (
	// ErrNoContactTargets indicates a contact relation without target bodies.
	ErrNoContactTargets = errors.New("dynamo: contact relation has no target bodies")

	// ErrMissingField indicates a named particle field required by a policy is absent.
	ErrMissingField = errors.New("dynamo: required particle field is missing")

	// ErrFieldLength indicates a particle field whose length differs from the body size.
	ErrFieldLength = errors.New("dynamo: particle field length does not match body size")

	// ErrNeighborOutOfRange indicates a neighbor index outside its target body.
	ErrNeighborOutOfRange = errors.New("dynamo: neighbor index out of range")

	// ErrInvalidConfig indicates an unusable case configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownScheme indicates a summation scheme name with no factory.
	ErrUnknownScheme = errors.New("dynamo: unknown summation scheme")

	// ErrNonFiniteDensity indicates a committed density that is NaN or infinite.
	ErrNonFiniteDensity = errors.New("dynamo: non-finite density")
)

// StepError wraps an error with the step and body it happened on.
type StepError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) body %s: %v", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
