package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

const (
	pathResolve = "/resolve"
	pathHosts   = "/hosts"
	pathDryRun  = "/dry-run"
	pathExecute = "/execute"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	// URL is the base URL of the lifecycle service.
	URL string

	// Timeout bounds each HTTP attempt and the websocket handshake.
	Timeout time.Duration

	// Retries is the number of retries of idempotent calls.
	Retries int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to a remote lifecycle service. Resolve, Domain and DryRun
// are retried on transport errors and 5xx responses. Execute is never
// retried.
type Client struct {
	base   *url.URL
	http   *retryablehttp.Client
	dialer *websocket.Dialer
}

var (
	_ api.Resolver  = (*Client)(nil)
	_ api.Inventory = (*Client)(nil)
	_ api.Backend   = (*Client)(nil)
)

// New creates a client for the service at opts.URL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", opts.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", opts.URL)
	}

	hc := retryablehttp.NewClient()
	hc.Logger = leveledLogger{}
	hc.RetryMax = opts.Retries
	if opts.RetryWaitMin > 0 {
		hc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		hc.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		hc.HTTPClient.Timeout = opts.Timeout
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.Timeout,
	}

	return &Client{base: base, http: hc, dialer: dialer}, nil
}

// Resolve posts the request to /resolve. A 404 or 422 response carrying an
// error body is returned as a *api.ResolutionError.
func (c *Client) Resolve(ctx context.Context, req api.ResolveRequest) (api.ResolveResponse, error) {
	var resp api.ResolveResponse
	if err := c.call(ctx, http.MethodPost, pathResolve, req, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusUnprocessableEntity) {
			return api.ResolveResponse{}, se.resolution(req.Apps)
		}
		return api.ResolveResponse{}, &api.TransportError{Op: "resolve", Err: err}
	}
	return resp, nil
}

// Domain fetches the host list from /hosts.
func (c *Client) Domain(ctx context.Context) (api.Domain, error) {
	var d api.Domain
	if err := c.call(ctx, http.MethodGet, pathHosts, nil, &d); err != nil {
		return api.Domain{}, &api.TransportError{Op: "list hosts", Err: err}
	}
	return d, nil
}

// DryRun posts the request to /dry-run.
func (c *Client) DryRun(ctx context.Context, req api.BackendRequest) (api.DryRunResponse, error) {
	req.DryRun = true
	var resp api.DryRunResponse
	if err := c.call(ctx, http.MethodPost, pathDryRun, req, &resp); err != nil {
		return nil, &api.TransportError{Op: "dry-run", Err: err}
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body any
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = data
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path, false), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("Backend", "%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, ws bool) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if ws {
		switch u.Scheme {
		case "https":
			u.Scheme = "wss"
		default:
			u.Scheme = "ws"
		}
	}
	return u.String()
}

// errorBody is the JSON error document of the service.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	App    string `json:"app,omitempty"`
}

type statusError struct {
	Code int
	Body errorBody
	Raw  string
}

func newStatusError(resp *http.Response) *statusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &statusError{Code: resp.StatusCode, Raw: strings.TrimSpace(string(raw))}
	_ = json.Unmarshal(raw, &se.Body)
	return se
}

func (e *statusError) Error() string {
	msg := e.Body.Error
	if msg == "" {
		msg = e.Raw
	}
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, msg)
}

func (e *statusError) resolution(requested []string) *api.ResolutionError {
	app := e.Body.App
	if app == "" && len(requested) == 1 {
		app = requested[0]
	}
	if api.ResolutionReason(e.Body.Reason) == api.ReasonUnresolvableDependency {
		return api.NewUnresolvableDependencyError(app, e.Body.Error)
	}
	resErr := api.NewUnknownApplicationError(app)
	resErr.Message = e.Body.Error
	return resErr
}

// leveledLogger routes retryablehttp's logging to the Backend subsystem.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) {
	logging.Warn("Backend", "%s%s", msg, formatKV(kv))
}

func (leveledLogger) Warn(msg string, kv ...interface{}) {
	logging.Warn("Backend", "%s%s", msg, formatKV(kv))
}

func (leveledLogger) Info(msg string, kv ...interface{}) {
	logging.Debug("Backend", "%s%s", msg, formatKV(kv))
}

func (leveledLogger) Debug(msg string, kv ...interface{}) {
	logging.Debug("Backend", "%s%s", msg, formatKV(kv))
}

func formatKV(kv []interface{}) string {
	var b bytes.Buffer
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
