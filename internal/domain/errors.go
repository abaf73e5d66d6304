// Package domain defines the core types, ports, and errors of the query
// pipeline.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsafeSQLError is the safety veto: the statement contains a mutating keyword.
type UnsafeSQLError struct {
	Keyword string
	SQL     string
}

func (e *UnsafeSQLError) Error() string {
	return fmt.Sprintf("unsafe SQL: statement contains %s", e.Keyword)
}

// PlanError indicates the language model did not produce a usable plan.
type PlanError struct {
	Reason string
	Err    error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan: %s: %v", e.Reason, e.Err)
	}
	return "plan: " + e.Reason
}

func (e *PlanError) Unwrap() error { return e.Err }

// ExecutionError carries the database's rejection of a statement.
type ExecutionError struct {
	SQL     string
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrPlan creates a PlanError with a formatted reason.
func ErrPlan(err error, format string, args ...interface{}) *PlanError {
	return &PlanError{Reason: fmt.Sprintf(format, args...), Err: err}
}
