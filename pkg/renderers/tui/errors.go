package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoShell is returned when a session is built without an intake shell.
	ErrNoShell = errors.New("tui: intake shell is required")
)
