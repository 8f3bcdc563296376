package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoDriver is returned when the renderer has no prompt driver.
	ErrNoDriver = errors.New("tui: prompt driver is nil")
	// ErrTooManyAttempts stops a prompt loop that keeps receiving invalid
	// answers, which only happens with scripted drivers.
	ErrTooManyAttempts = errors.New("tui: too many invalid answers")
)
