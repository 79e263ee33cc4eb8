package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o wait" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestConnectionErrorType(t *testing.T) {
	tests := []struct {
		typ  ConnectionErrorType
		want string
	}{
		{ConnectionErrorTLS, "TLS certificate error"},
		{ConnectionErrorNetwork, "Network error"},
		{ConnectionErrorTimeout, "Connection timeout"},
		{ConnectionErrorDNS, "DNS resolution error"},
		{ConnectionErrorUnknown, "Connection error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestClassifyConnectionError(t *testing.T) {
	const endpoint = "https://lifecycle.example"

	assert.Nil(t, ClassifyConnectionError(nil, endpoint))

	hostErr := &x509.HostnameError{Certificate: &x509.Certificate{}, Host: "lifecycle.example"}
	tests := []struct {
		name string
		err  error
		want ConnectionErrorType
	}{
		{name: "x509 message", err: errors.New("x509: certificate signed by unknown authority"), want: ConnectionErrorTLS},
		{name: "wrapped hostname error", err: fmt.Errorf("dial: %w", hostErr), want: ConnectionErrorTLS},
		{name: "dns", err: fmt.Errorf("lookup: %w", &net.DNSError{Err: "no such host", Name: "lifecycle.example"}), want: ConnectionErrorDNS},
		{name: "net timeout", err: fmt.Errorf("read: %w", timeoutErr{}), want: ConnectionErrorTimeout},
		{name: "deadline message", err: errors.New("context deadline exceeded"), want: ConnectionErrorTimeout},
		{name: "refused", err: errors.New("dial tcp 127.0.0.1:8470: connect: connection refused"), want: ConnectionErrorNetwork},
		{name: "other", err: errors.New("status 500: boom"), want: ConnectionErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyConnectionError(tt.err, endpoint)
			require.NotNil(t, ce)
			assert.Equal(t, tt.want, ce.Type)
			assert.Equal(t, endpoint, ce.Endpoint)
			assert.ErrorIs(t, ce, tt.err)
		})
	}
}

func TestConnectionError_Message(t *testing.T) {
	ce := &ConnectionError{
		Endpoint: "http://localhost:8470",
		Type:     ConnectionErrorNetwork,
		Reason:   errors.New("connection refused"),
	}
	msg := ce.Error()
	assert.Contains(t, msg, "Network error reaching the lifecycle backend at http://localhost:8470")
	assert.Contains(t, msg, "backend.url")

	ce.Type = ConnectionErrorUnknown
	assert.NotContains(t, ce.Error(), "\n")
}

func TestExplainBackendError(t *testing.T) {
	const endpoint = "http://localhost:8470"

	plain := errors.New("boom")
	assert.Same(t, plain, ExplainBackendError(plain, endpoint))

	status := &api.TransportError{Op: "resolve", Err: errors.New("status 500: internal")}
	assert.Same(t, error(status), ExplainBackendError(status, endpoint))

	refused := &api.TransportError{Op: "resolve", Err: errors.New("dial tcp [::1]:8470: connect: connection refused")}
	got := ExplainBackendError(refused, endpoint)
	var ce *ConnectionError
	require.ErrorAs(t, got, &ce)
	assert.Equal(t, ConnectionErrorNetwork, ce.Type)
	assert.True(t, api.IsTransport(got))
}
