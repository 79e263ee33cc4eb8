package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"

	"appctl/internal/api"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates the backend refused or could not be routed to.
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

var connectionErrorInfo = map[ConnectionErrorType]struct{ name, hint string }{
	ConnectionErrorUnknown: {name: "Connection error"},
	ConnectionErrorTLS: {
		name: "TLS certificate error",
		hint: "Check that the backend certificate is valid for the host name in backend.url.",
	},
	ConnectionErrorNetwork: {
		name: "Network error",
		hint: "Check that the backend is running and backend.url points at it.",
	},
	ConnectionErrorTimeout: {
		name: "Connection timeout",
		hint: "The backend did not answer in time. Raise backend.timeout or check its load.",
	},
	ConnectionErrorDNS: {
		name: "DNS resolution error",
		hint: "The host name in backend.url does not resolve.",
	},
}

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	if info, ok := connectionErrorInfo[t]; ok {
		return info.name
	}
	return connectionErrorInfo[ConnectionErrorUnknown].name
}

// ConnectionError reports that the lifecycle backend could not be reached.
type ConnectionError struct {
	// Endpoint is the backend that could not be reached.
	Endpoint string
	Type     ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error returns the category, endpoint and a hint on what to check.
func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("%s reaching the lifecycle backend at %s: %v", e.Type, e.Endpoint, e.Reason)
	if hint := e.Hint(); hint != "" {
		msg += "\n\n" + hint
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// Hint suggests what to check, or returns "" for unknown errors.
func (e *ConnectionError) Hint() string {
	return connectionErrorInfo[e.Type].hint
}

// classifiers are tried in order; the first match decides the type.
var classifiers = []struct {
	typ   ConnectionErrorType
	match func(error) bool
}{
	{ConnectionErrorTLS, isTLSError},
	{ConnectionErrorDNS, isDNSError},
	{ConnectionErrorTimeout, isTimeoutError},
	{ConnectionErrorNetwork, isNetworkError},
}

// ClassifyConnectionError wraps err in a ConnectionError of the matching
// type. It returns nil for a nil error.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}
	ce := &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorUnknown, Reason: err}
	for _, c := range classifiers {
		if c.match(err) {
			ce.Type = c.typ
			break
		}
	}
	return ce
}

// ExplainBackendError rewrites transport errors that look like connectivity
// problems into a ConnectionError. Other errors, including HTTP status
// errors from a reachable backend, are returned unchanged.
func ExplainBackendError(err error, endpoint string) error {
	if !api.IsTransport(err) {
		return err
	}
	ce := ClassifyConnectionError(err, endpoint)
	if ce.Type == ConnectionErrorUnknown {
		return err
	}
	return ce
}

var (
	tlsKeywords     = []string{"x509:", "certificate", "tls:", "TLS handshake"}
	timeoutKeywords = []string{"timeout", "deadline exceeded"}
	networkKeywords = []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func isTLSError(err error) bool {
	var (
		certErr  *x509.CertificateInvalidError
		hostErr  *x509.HostnameError
		authErr  *x509.UnknownAuthorityError
		rootsErr *x509.SystemRootsError
	)
	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &authErr) || errors.As(err, &rootsErr) {
		return true
	}
	return containsAny(err.Error(), tlsKeywords)
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isTimeoutError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return containsAny(err.Error(), timeoutKeywords)
}

func isNetworkError(err error) bool {
	return containsAny(err.Error(), networkKeywords)
}
