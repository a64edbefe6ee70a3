// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleElement is returned when a handle is used after the page navigated.
	ErrStaleElement = errors.New("element handle is stale; the page navigated since it was located")
	// ErrSessionReleased is returned by any page operation after Release.
	ErrSessionReleased = errors.New("browser session has been released")
	// ErrInvalidLocator is returned for zero-value locators.
	ErrInvalidLocator = errors.New("invalid locator")
)

// SessionStartupError means a browser could not be launched or did not respond.
// No scenario can run after it.
type SessionStartupError struct {
	Err error
}

func (e *SessionStartupError) Error() string {
	return fmt.Sprintf("failed to start browser session: %v", e.Err)
}

func (e *SessionStartupError) Unwrap() error { return e.Err }

// TeardownError reports a failure while releasing a session. It never masks
// the error of the work that ran inside the session.
type TeardownError struct {
	SessionID string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("failed to release browser session %s: %v", e.SessionID, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
