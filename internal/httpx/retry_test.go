package httpx

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type scriptedDoer struct {
	calls int
	errs  []error
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.calls <= len(d.errs) && d.errs[d.calls-1] != nil {
		return nil, d.errs[d.calls-1]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)
	return req
}

func TestRetryRecoversFromTimeouts(t *testing.T) {
	doer := &scriptedDoer{errs: []error{timeoutError{}, timeoutError{}}}
	rc := &RetryClient{client: doer, maxAttempts: 3, baseDelay: time.Millisecond}

	resp, err := rc.Do(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, doer.calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	doer := &scriptedDoer{errs: []error{timeoutError{}, timeoutError{}, timeoutError{}}}
	rc := &RetryClient{client: doer, maxAttempts: 3, baseDelay: time.Millisecond}

	_, err := rc.Do(newRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, 3, doer.calls)
	assert.True(t, IsTimeout(errors.Unwrap(err)))
}

func TestNonTimeoutErrorNotRetried(t *testing.T) {
	doer := &scriptedDoer{errs: []error{errors.New("connection refused")}}
	rc := &RetryClient{client: doer, maxAttempts: 3, baseDelay: time.Millisecond}

	_, err := rc.Do(newRequest(t))
	require.Error(t, err)
	assert.Equal(t, 1, doer.calls)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(timeoutError{}))
	assert.False(t, IsTimeout(errors.New("nope")))
	assert.False(t, IsTimeout(nil))
}
