package fetch

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client is an HTTP getter with an optional request rate limit and a
// fixed set of extra headers.
type Client struct {
	HTTPClient *http.Client
	Headers    map[string]string
	limiter    *rate.Limiter
}

// NewClient builds a Client. rps <= 0 disables rate limiting.
func NewClient(rps float64, headers map[string]string) *Client {
	c := &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Headers:    headers,
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// Get issues a single GET, blocking first on the rate limiter if one is
// configured.
func (c *Client) Get(url string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	return c.HTTPClient.Do(req)
}
