package analysis

import "errors"

var (
	// ErrNotFound is returned when no report exists.
	ErrNotFound = errors.New("analysis report not found")
	// ErrRunInProgress is returned when a run for the user is in flight or
	// started within the lock window. The caller should retry later.
	ErrRunInProgress = errors.New("analysis run already in progress")
	// ErrNothingToAnalyze is returned when no eligible photos exist.
	ErrNothingToAnalyze = errors.New("nothing to analyze")
	// ErrPersistFailed is returned when the final report insert fails. This is
	// the only fatal path of a run.
	ErrPersistFailed = errors.New("failed to persist report")
)
