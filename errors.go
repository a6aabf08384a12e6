// Copyright © 2024 The Procq Project.

package procq

import (
	"errors"
	"fmt"
)

// ErrNoResults matches, via errors.Is, any expectation failure where zero
// results were found. It distinguishes "nothing yet" from a genuine
// shortfall when callers poll for a process to become ready.
var ErrNoResults = errors.New("no matching results")

type (
	// ConfigError reports misuse of the query API, such as a child walk
	// with no root pid.
	ConfigError struct {
		Reason string
	}

	// PlatformError reports that the OS refused or failed a table
	// enumeration. It is never retried transparently; only an explicit
	// retry policy reissues the query.
	PlatformError struct {
		Op  string
		Err error
	}

	// ProcessNotFoundError reports that the root pid of a child walk was
	// absent from the process snapshot.
	ProcessNotFoundError struct {
		Pid Pid
	}

	// InsufficientResultsError reports that a query matched fewer results
	// than its declared minimum.
	InsufficientResultsError struct {
		Found    int
		Expected int
	}
)

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform query %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func (e *ProcessNotFoundError) Error() string {
	return fmt.Sprintf("process %d not found", e.Pid)
}

func (e *InsufficientResultsError) Error() string {
	return fmt.Sprintf("too few results, got %d but expected %d", e.Found, e.Expected)
}

// Is reports ErrNoResults when the expectation failed with nothing found.
func (e *InsufficientResultsError) Is(target error) bool {
	return target == ErrNoResults && e.Found == 0
}
