package ollama

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Stable error kinds callers and tests can branch on. All of them are
// terminal: the gateway never retries on the caller's behalf.
var (
	// ErrServiceUnavailable indicates the reachability probe failed.
	ErrServiceUnavailable = errors.New("inference service is not available")

	// ErrModelNotReady indicates the service answered the probe but the
	// configured model is not in its model list.
	ErrModelNotReady = errors.New("requested model is not ready")

	// ErrMalformedResponse indicates the generate call succeeded at the
	// transport level but the payload failed validation.
	ErrMalformedResponse = errors.New("malformed response from inference service")
)

// TransportKind labels the network-level failure condition behind a
// TransportError. All kinds share one error type for programmatic handling;
// the kind selects the user-facing message.
type TransportKind string

const (
	TransportConnectionRefused  TransportKind = "connection_refused"
	TransportDNSFailure         TransportKind = "dns_failure"
	TransportNetworkUnreachable TransportKind = "network_unreachable"
	TransportTimeout            TransportKind = "timeout"
	TransportOther              TransportKind = "other"
)

// TransportError is returned when the generate call fails before an HTTP
// response arrives. Error() returns only the user-facing message; the
// underlying error is kept for logging and errors.Is checks.
type TransportError struct {
	Kind    TransportKind
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyTransportError maps a network failure to a TransportError with a
// distinct message per condition. Raw transport text never reaches the
// message; it stays on Err for logs.
func classifyTransportError(err error) *TransportError {
	switch {
	case isTimeout(err):
		return &TransportError{
			Kind:    TransportTimeout,
			Message: "The inference request timed out. The service may be overloaded.",
			Err:     err,
		}
	case isDNSFailure(err):
		return &TransportError{
			Kind:    TransportDNSFailure,
			Message: "Cannot resolve the inference service address.",
			Err:     err,
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &TransportError{
			Kind:    TransportConnectionRefused,
			Message: "Cannot connect to the inference service. Please verify it is running.",
			Err:     err,
		}
	case errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH):
		return &TransportError{
			Kind:    TransportNetworkUnreachable,
			Message: "The inference service network is unreachable.",
			Err:     err,
		}
	default:
		return &TransportError{
			Kind:    TransportOther,
			Message: "Failed to communicate with the inference service.",
			Err:     err,
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
