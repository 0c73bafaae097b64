package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Options configures an outbound client. ProxyURL is supplied by the hosting
// environment; empty means a direct connection.
type Options struct {
	Timeout  time.Duration
	ProxyURL string
}

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	c, _ := NewClientWithOptions(Options{Timeout: timeout})
	return c
}

func NewClientWithOptions(opts Options) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Proxy selection is explicit; the process environment is consulted only by config loading.
	transport.Proxy = nil

	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil || proxy.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", opts.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}, nil
}

// HTTPClient exposes the underlying client for SDKs that accept one.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}
