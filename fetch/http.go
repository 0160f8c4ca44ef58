// Package fetch performs the unauthenticated GETs used for feeds, playlists,
// keys and segments.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"episodedl/failure"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.163 Safari/537.36"

// Options configures a Client. A zero Timeout leaves requests unbounded.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client issues GET requests with UA, headers, etc. initialized.
type Client struct {
	http      *http.Client
	userAgent string
}

func New(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{Transport: transport, Timeout: opts.Timeout},
		userAgent: ua,
	}
}

// Get returns the response for url. Non-2xx statuses are reported as
// failure.ErrNetwork and the body is closed.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNetwork, "fetch", "build request", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNetwork, "fetch", "get", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, failure.Wrap(failure.ErrNetwork, "fetch", "get", fmt.Sprintf("%s: status %s", url, resp.Status), nil)
	}
	return resp, nil
}

// Bytes returns the whole response body for url.
func (c *Client) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNetwork, "fetch", "read body", url, err)
	}
	return body, nil
}
