package ai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// retryBaseDelay is the first backoff after a rate-limited vendor response.
// Tests lower it to avoid real sleeps.
var retryBaseDelay = 2 * time.Second

const maxVendorRetries = 3

// doWithRetry sends req and retries HTTP 429 and 503 responses with
// exponential backoff (base, 2x, 4x). The request body must be replayable,
// which holds for requests built from a bytes.Reader. After the last attempt
// the final response is returned for the caller to inspect.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxVendorRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		backoff := retryBaseDelay << attempt
		slog.Warn("AI vendor busy, backing off",
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}
