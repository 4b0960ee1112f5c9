package bulletin

import (
	"errors"
	"fmt"
)

// ErrNoEmbeddedData is returned by the embedded source when the page carries no inline bulletin.
var ErrNoEmbeddedData = errors.New("no embedded bulletin data")

// EmbeddedParseError reports malformed JSON inlined in the page.
type EmbeddedParseError struct {
	Err error
}

func (e *EmbeddedParseError) Error() string {
	return fmt.Sprintf("embedded JSON parse error: %v", e.Err)
}

func (e *EmbeddedParseError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure or a non-success response from a remote source.
// StatusCode is zero when no response was received.
type NetworkError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("loading %s: HTTP %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteParseError reports a remote document that is not a valid bulletin.
type RemoteParseError struct {
	Source string
	Err    error
}

func (e *RemoteParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
}

func (e *RemoteParseError) Unwrap() error { return e.Err }
