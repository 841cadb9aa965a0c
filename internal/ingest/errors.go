package ingest

import "fmt"

// ValidationError marks an entity that can never be ingested as sent.
// It is surfaced to synchronous callers as a 400 and permanently dropped on
// the queue path; it must never be retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid entity: %s %s", e.Field, e.Reason)
}

// TransientError marks a failure that may succeed on retry: an unreachable
// embedding service or a failed store write. Queue consumers requeue on it;
// synchronous callers get a 500.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
