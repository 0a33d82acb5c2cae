package enricher

import (
	"errors"
)

// DependencyInitError reports that the registry decoder or dead-letter sink
// could not be built. No batch is processed; the next invocation retries.
type DependencyInitError struct {
	Err error
}

func (e *DependencyInitError) Error() string {
	return "initialise dependencies: " + e.Err.Error()
}

func (e *DependencyInitError) Unwrap() error {
	return e.Err
}

func AsDependencyInitError(err error) (*DependencyInitError, bool) {
	var de *DependencyInitError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
