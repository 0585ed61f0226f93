package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/shortload/internal/catalog"
)

const maxDrainBytes = 64 << 10

// Transport sends a single request and reports the raw status code. It must
// not follow redirects.
type Transport interface {
	Send(ctx context.Context, req catalog.Request, headers http.Header) (int, error)
}

// HTTPTransport issues requests against a base URL using a pooled http.Client.
type HTTPTransport struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
}

// NewHTTPTransport parses target and prepares a client with redirects disabled.
// timeout bounds each call, including reading the response body.
func NewHTTPTransport(target string, timeout time.Duration) (*HTTPTransport, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("target URL is required")
	}
	base, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid target %q: scheme must be http or https", target)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid target %q: host is required", target)
	}
	return &HTTPTransport{base: base, client: NewClient(timeout), timeout: timeout}, nil
}

// NewClient returns an http.Client tuned for many concurrent users hitting a
// single host. Redirects are returned to the caller as-is.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          1024,
		MaxIdleConnsPerHost:   1024,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// URL resolves req against the base target.
func (t *HTTPTransport) URL(req catalog.Request) *url.URL {
	u := *t.base
	u.Path = strings.TrimSuffix(t.base.Path, "/") + req.Path
	u.RawPath = ""
	u.RawQuery = req.RawQuery
	u.Fragment = ""
	return &u
}

func (t *HTTPTransport) Send(ctx context.Context, req catalog.Request, headers http.Header) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.URL(req).String(), nil)
	if err != nil {
		return 0, err
	}
	for key, values := range headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain so the connection goes back to the pool.
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)); err != nil {
		return 0, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, nil
}

// CloseIdleConnections releases pooled connections at shutdown.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
