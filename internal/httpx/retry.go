// Package httpx provides the HTTP client wrapper shared by the external
// API clients. Timeout-class transport errors are retried with a fixed
// exponential backoff; everything else is returned to the caller, which
// decides whether a status code or body is fatal.
package httpx

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Doer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient wraps a Doer and retries requests that fail with a
// timeout-class transport error. Attempts are spaced 1s, 2s, 4s apart
// (baseDelay doubling per attempt), with no jitter: the batch runs
// alone, so deterministic backoff keeps logs readable.
type RetryClient struct {
	client      Doer
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryClient creates a RetryClient around the given Doer.
// If client is nil, a default http.Client with a 30s timeout is used.
// maxAttempts counts the initial request (default 3).
func NewRetryClient(client Doer, maxAttempts int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryClient{
		client:      client,
		maxAttempts: maxAttempts,
		baseDelay:   1 * time.Second,
	}
}

// Do executes the request, retrying only timeout errors. HTTP status
// codes are never retried here; responses are returned as-is so the
// caller can classify them. Context cancellation stops the retry loop.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= rc.maxAttempts; attempt++ {
		if attempt > 1 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpx: reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.baseDelay << (attempt - 2)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				return nil, lastErr
			}
		}

		resp, err := rc.client.Do(req)
		if err == nil {
			return resp, nil
		}
		if req.Context().Err() != nil {
			return nil, err
		}
		if !IsTimeout(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("httpx: giving up after %d attempts: %w", rc.maxAttempts, lastErr)
}

// IsTimeout reports whether err is a timeout-class transport error.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
