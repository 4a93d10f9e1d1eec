package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined to
	// retry after a failed submit.
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when the submit attempt limit is reached
	// without a valid submission.
	ErrTooManyAttempts = errors.New("tui: too many invalid submissions")
)
