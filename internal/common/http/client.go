// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

// Client is a thin wrapper so outbound calls share one transport and one
// timeout policy.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client with the given overall timeout. Zero means no
// client-side deadline; the request context is then the only bound.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wrap adopts an existing *http.Client, e.g. httptest.Server.Client().
func Wrap(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{httpClient: hc}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
