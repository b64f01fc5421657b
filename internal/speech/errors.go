package speech

import "fmt"

// StreamError is a non-zero status from the recognition service or a
// socket-level failure during capture. It tears down the session; there is
// no automatic reconnect.
type StreamError struct {
	Code    int
	Message string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("speech: recognition error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("speech: %s", e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
