package atlas

import "fmt"

// TransportError reports that the metadata request to the atlas service could
// not be completed: connection failure, timeout, or a non-success HTTP status.
// It is fatal to the lookup of that one coordinate.
type TransportError struct {
	// URL is the fully constructed request URL.
	URL string

	// Cause is the underlying transport failure, or nil when the failure
	// was a non-success HTTP status.
	Cause error

	// StatusCode is the HTTP status received, or 0 when the request never
	// completed.
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unable to complete atlas request to %q: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("atlas request to %q returned status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ParseError reports that the metadata response body could not be decoded as
// JSON under any fallback strategy. Sample holds the leading bytes of the raw
// body for diagnostics.
type ParseError struct {
	// Sample is at most the first 200 bytes of the response body.
	Sample []byte

	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse atlas response: %v (first %d bytes: %q)", e.Cause, len(e.Sample), e.Sample)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// RemoteError reports that the atlas service answered with an application
// level error field instead of slice metadata.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("atlas service error: %s", e.Message)
}
