package browser

import (
	"errors"
	"fmt"
)

// ErrSessionNotReady is returned when the page is used outside StateReady.
var ErrSessionNotReady = errors.New("browser session is not ready")

// NavigationError reports a page that failed to load.
type NavigationError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}
