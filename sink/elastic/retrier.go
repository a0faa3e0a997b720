package elastic

import (
	"context"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/poiesic/indexfeed/deadline"
)

const (
	retryInitialWait = 500 * time.Millisecond
	retryMaxWait     = 30 * time.Second
)

// throttleRetrier retries HTTP 429 responses only, with exponential backoff
// capped by the remaining execution deadline. Every other failure is the
// queue's problem, not the transport's.
type throttleRetrier struct {
	backoff    elastic.Backoff
	maxRetries int
	tracker    deadline.Tracker
}

var _ elastic.Retrier = (*throttleRetrier)(nil)

func newThrottleRetrier(tracker deadline.Tracker, maxRetries int) *throttleRetrier {
	return &throttleRetrier{
		backoff:    elastic.NewExponentialBackoff(retryInitialWait, retryMaxWait),
		maxRetries: maxRetries,
		tracker:    tracker,
	}
}

func (r *throttleRetrier) Retry(ctx context.Context, retry int, req *http.Request, resp *http.Response, err error) (time.Duration, bool, error) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0, false, nil
	}
	if retry > r.maxRetries {
		return 0, false, nil
	}
	remaining := r.tracker()
	if remaining <= 0 {
		return 0, false, nil
	}
	wait, ok := r.backoff.Next(retry)
	if !ok {
		return 0, false, nil
	}
	if wait > remaining {
		wait = remaining
	}
	return wait, true, nil
}
