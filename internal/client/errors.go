package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Kind is the category of a client failure
type Kind int

const (
	// KindNetwork is a generic transport failure
	KindNetwork Kind = iota
	// KindTimeout means the server did not answer in time
	KindTimeout
	// KindConnectionRefused means nothing is listening at the address
	KindConnectionRefused
	// KindDNS means the host name could not be resolved
	KindDNS
	// KindHTTP means the server answered with an unexpected status
	KindHTTP
	// KindParse means the response body was not what the server should send
	KindParse
	// KindCanceled means the caller's context ended the request
	KindCanceled
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindTimeout:
		return "timeout"
	case KindConnectionRefused:
		return "connection refused"
	case KindDNS:
		return "DNS error"
	case KindHTTP:
		return "HTTP error"
	case KindParse:
		return "parse error"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error describes a failed request to the server
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int   // set for KindHTTP
	Err        error // underlying cause, if any
	Retryable  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps a transport error from http.Client.Do onto an *Error.
func classify(message string, err error) *Error {
	e := &Error{Kind: KindNetwork, Message: message, Err: err, Retryable: true}

	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
		e.Retryable = false
	case os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	case errors.As(err, &dnsErr):
		e.Kind = KindDNS
		e.Retryable = false
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED):
		e.Kind = KindConnectionRefused
	}
	return e
}

func newHTTPError(status int) *Error {
	return &Error{
		Kind:       KindHTTP,
		Message:    fmt.Sprintf("unexpected status code: %d", status),
		StatusCode: status,
		Retryable:  status >= 500,
	}
}

func newParseError(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

// IsRetryable reports whether err is worth another attempt
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Hint returns a one-line suggestion for the operator
func Hint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}

	switch e.Kind {
	case KindConnectionRefused:
		return "Is blescan-server running? Check the --server address and port."
	case KindTimeout:
		return "The server did not answer in time. Check the network path to it."
	case KindDNS:
		return "Could not resolve the server host. Try its IP address or run 'blescan discover'."
	case KindHTTP:
		return "The address answered but does not look like a blescan server."
	case KindParse:
		return "The response was not a device list. Check the server version."
	default:
		return ""
	}
}
