package services

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError means the model server could not be reached or the
// connection broke while reading.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ConnectionRefused reports whether nothing is listening at the model server address.
func (e *TransportError) ConnectionRefused() bool {
	return strings.Contains(strings.ToLower(e.Err.Error()), "connection refused")
}

// StatusError is a non-200 answer from the model server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is a response body or stream line that is not valid JSON.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %q: %v", truncate(e.Line, 80), e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// UpstreamError carries the "error" field the model server put in its reply.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// ErrEmptyReply is returned when a completion succeeded but had no content.
var ErrEmptyReply = errors.New("model returned an empty reply")

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
