package types

import "fmt"

// ValidationError indicates a request was missing or had invalid fields.
// It is raised before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// UpstreamGenerationError indicates the generation service failed or timed out.
type UpstreamGenerationError struct {
	Message string
	Cause   error
}

func (e *UpstreamGenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *UpstreamGenerationError) Unwrap() error {
	return e.Cause
}

// MalformedEvaluationError indicates the grading response held no parseable rubric.
type MalformedEvaluationError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *MalformedEvaluationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed evaluation: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed evaluation: %s", e.Message)
}

func (e *MalformedEvaluationError) Unwrap() error {
	return e.Cause
}

// PersistenceError indicates a store read or write failed.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a session that does not exist was requested.
type NotFoundError struct {
	SessionID SessionID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// SessionClosedError indicates a turn was sent to a session that has already
// been evaluated.
type SessionClosedError struct {
	SessionID SessionID
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session already evaluated: %s", e.SessionID)
}
