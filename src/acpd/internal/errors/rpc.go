package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// StreamIOError indicates a read or write failure on one of the child's piped streams.
// It usually means that the process died.
type StreamIOError struct {
	Op  string
	Err error
}

// Error is an implementation of the error interface.
func (n *StreamIOError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", n.Op, n.Err)
}

// Unwrap returns the underlying I/O error.
func (n *StreamIOError) Unwrap() error {
	return n.Err
}

// RequestTimeoutError indicates that no response arrived for a request within its bound.
type RequestTimeoutError struct {
	Method  string
	ID      uint64
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (n *RequestTimeoutError) Error() string {
	return fmt.Sprintf("Request timed out: %s did not respond within %s", n.Method, n.Timeout)
}

// RemoteError is the peer's own JSON-RPC error object. Message is passed through verbatim.
type RemoteError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

// Error is an implementation of the error interface.
func (n *RemoteError) Error() string {
	return n.Message
}

// ParseError indicates that a payload returned by the peer or the CLI could not be decoded.
type ParseError struct {
	What string
	Err  error
}

// Error is an implementation of the error interface.
func (n *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse %s: %v", n.What, n.Err)
}

// Unwrap returns the underlying decoding error.
func (n *ParseError) Unwrap() error {
	return n.Err
}
