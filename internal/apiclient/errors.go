package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyData is wrapped by DecodeError when the envelope carries no data
// where a value is required.
var ErrEmptyData = errors.New("the response envelope has no data")

// TransportError means no response was received: the connection failed,
// the request was cancelled or the timeout elapsed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("apiclient: %s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// HTTPError is returned for every non-2xx response. The body is kept as is.
type HTTPError struct {
	Op     string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("apiclient: %s: unexpected status %d: %s", e.Op, e.Status, bytes.TrimSpace(e.Body))
}

// DecodeError means the response could not be unwrapped into the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("apiclient: %s: decode error: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
