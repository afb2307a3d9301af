package service

import "fmt"

// RecordingError means the atomic payment write failed. Nothing is assumed
// committed; the caller must re-submit.
type RecordingError struct {
	Err error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("payment recording failed: %v", e.Err)
}

func (e *RecordingError) Unwrap() error { return e.Err }

// LookupError means the existing-fee query failed. It is non-fatal: the
// engine falls back to fresh fee computation instead of failing the
// submission.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("late fee lookup failed: %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
