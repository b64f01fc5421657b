package ai

import "fmt"

// RemoteServiceError reports a failed round-trip to the model provider:
// either a transport failure or a non-2xx response. The caller decides the
// fallback behavior; the client never retries.
type RemoteServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}
