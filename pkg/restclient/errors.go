package restclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEndOfStream is returned by Stream.Recv when the transport ended
// gracefully. It is a marker, not a failure: a consumer that sees it should
// wrap up and return its final value.
var ErrEndOfStream = errors.New("end of stream")

// RequestFailedError reports a response the status gate rejected: a status
// >= 400, or a non-101 reply to an upgrade request. It carries the response
// status and headers (and any body already read) for caller inspection.
type RequestFailedError struct {
	Status int
	Header http.Header
	Body   []byte

	// Reason is set for upgrade handshakes that failed despite a 101.
	Reason string
}

func (e *RequestFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// TransportError reports a connection-level failure: DNS, TLS handshake,
// connection reset, malformed response. Op names the phase that failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AbortError is delivered to a consumer via Stream.Recv when its transport
// terminated abnormally: server reset, mid-stream decode failure, or a
// client-side cancel. The consumer may recover (return a value) or propagate
// it, which rejects an awaited future.
type AbortError struct {
	Cause error
}

func (e *AbortError) Error() string {
	if e.Cause == nil {
		return "stream aborted"
	}
	return fmt.Sprintf("stream aborted: %v", e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

// DecodeError reports a malformed WebSocket frame. It is fatal for the
// connection and reaches the consumer wrapped in an AbortError.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("frame decode: %s", e.Reason)
}

// IsAbort reports whether err is (or wraps) an AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}
