package site

import (
	"fmt"
)

// ValidationError reports malformed input. It is returned before any browser
// or network use.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ProbeError describes a failed identity check. LoginProbe logs it and reports
// the user as logged out; it never reaches callers.
type ProbeError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("identity probe %s returned status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("identity probe %s failed: %v", e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// FetchError reports a metadata API call that did not succeed. Body holds the
// raw response for diagnostics.
type FetchError struct {
	URL    string
	Status int
	Code   int
	Body   []byte
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s failed (status %d, code %d)", e.URL, e.Status, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MissingDataError reports a track listing that was never captured while the
// album page was open.
type MissingDataError struct {
	AlbumID string
	URL     string

	// PageTitle and ListingRendered describe the page at the end of the wait
	PageTitle       string
	ListingRendered bool
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no track listing captured for album %s at %s (title %q, listing rendered: %t)",
		e.AlbumID, e.URL, e.PageTitle, e.ListingRendered)
}

// DecryptError reports a token the resolver could not turn into a URL.
type DecryptError struct {
	Token      string
	DeviceType string
	Err        error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("failed to resolve token for device %s: %v", e.DeviceType, e.Err)
}

func (e *DecryptError) Unwrap() error {
	return e.Err
}
