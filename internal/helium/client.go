// Package helium fetches weekly organic keyword ranks from the
// Helium 10 keyword tracker export API (served through Pacvue) and
// discovers which keywords each product tracks from its sheet header.
package helium

import (
	"net/http"

	"github.com/superself/amazon-monitor/internal/config"
	"github.com/superself/amazon-monitor/internal/httpx"
)

const Tag = "[HELIUM]"

// Client calls the keyword tracker export endpoint. Requests carry both
// the Helium auth token and the Pacvue gateway token.
type Client struct {
	baseURL     string
	accountID   int
	authToken   string
	pacvueToken string
	concurrency int
	httpClient  httpx.Doer
}

// NewClient builds a client from configuration. Transport timeouts are
// retried three times before a product is given up on.
func NewClient(cfg config.HeliumConfig) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		accountID:   cfg.AccountID,
		authToken:   cfg.AuthToken,
		pacvueToken: cfg.PacvueToken,
		concurrency: concurrency,
		httpClient:  httpx.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3),
	}
}

// SetHTTPClient replaces the transport. Used by tests.
func (c *Client) SetHTTPClient(doer httpx.Doer) {
	c.httpClient = doer
}
