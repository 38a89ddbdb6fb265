package idxbench

import (
	"errors"
	"fmt"
)

type (

	// BenchError represents a base error type for benchmark operations
	BenchError struct {
		Op  string // Operation that failed
		Err error  // The underlying error
	}

	// UniquenessError represents a unique-constraint violation raised while
	// loading generated records, typically caused by re-running the
	// generator against non-empty variants
	UniquenessError struct {
		BenchError
		Variant    string // The variant that rejected the row
		Constraint string // The violated constraint, when the driver reports it
	}

	// ScenarioError represents a scenario that failed to execute against a
	// variant; it aborts the measurement battery
	ScenarioError struct {
		BenchError
		Scenario string
		Variant  string
	}

	// ResourceError represents an error related to resource management
	ResourceError struct {
		BenchError
		Resource string // The resource that caused the error
	}
)

// Error implements the error interface
func (e BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e BenchError) Unwrap() error {
	return e.Err
}

// IsUniquenessError checks if the error is a UniquenessError
func IsUniquenessError(err error) bool {
	var uniquenessErr *UniquenessError
	return errors.As(err, &uniquenessErr)
}

// IsScenarioError checks if the error is a ScenarioError
func IsScenarioError(err error) bool {
	var scenarioErr *ScenarioError
	return errors.As(err, &scenarioErr)
}

// IsResourceError checks if the error is a ResourceError
func IsResourceError(err error) bool {
	var resourceErr *ResourceError
	return errors.As(err, &resourceErr)
}

// GetUniquenessError extracts a UniquenessError from the error chain
func GetUniquenessError(err error) (*UniquenessError, bool) {
	var uniquenessErr *UniquenessError
	if errors.As(err, &uniquenessErr) {
		return uniquenessErr, true
	}
	return nil, false
}

// GetScenarioError extracts a ScenarioError from the error chain
func GetScenarioError(err error) (*ScenarioError, bool) {
	var scenarioErr *ScenarioError
	if errors.As(err, &scenarioErr) {
		return scenarioErr, true
	}
	return nil, false
}
