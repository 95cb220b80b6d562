package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication and retry of
// transport failures. Responses that arrive are never retried.
type Client struct {
	http       *http.Client
	auth       Authenticator
	baseURL    string
	retries    uint64
	initial    time.Duration
	maxBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetries sets how many extra attempts follow a transport failure.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = uint64(n)
	}
}

// WithBackoff sets the initial and maximum delay between retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initial = initial
		c.maxBackoff = max
	}
}

// New creates a new transport client for baseURL with the specified authenticator.
func New(baseURL string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
		auth:       auth,
		baseURL:    strings.TrimRight(baseURL, "/"),
		retries:    constants.MaxRetries,
		initial:    constants.RetryBackoff,
		maxBackoff: constants.MaxRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins the base URL, a path, and query parameters.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs a request against path with an optional JSON body. Transport
// failures of idempotent methods are retried with exponential backoff; every
// transport failure is returned as *errors.TransportError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "request", err)
		}
	}

	target := c.URL(path, query)
	var resp *http.Response

	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(errors.WrapResource("create", "request", method+" "+target, err))
		}
		c.DoRequest(req)

		r, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(errors.NewTransportError(method, target, ctx.Err()))
			}
			// The server may have applied a POST before the connection dropped.
			if !idempotent(method) {
				return backoff.Permanent(errors.NewTransportError(method, target, err))
			}
			return errors.NewTransportError(method, target, err)
		}
		resp = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxInterval = c.maxBackoff

	notify := func(err error, wait time.Duration) {
		logging.FromContext(ctx).Debug().
			Err(err).
			Dur("wait", wait).
			Str("method", method).
			Str("url", target).
			Msg("Retrying request")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx), notify); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return resp, nil
}

// idempotent reports whether a request with method may be sent again.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// DoRequest applies authentication and the common JSON headers.
func (c *Client) DoRequest(req *http.Request) {
	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}
