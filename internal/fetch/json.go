package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// JSONClient issues GET requests against the fixed-host provider APIs and
// decodes JSON responses. Unlike Client it does no host-safety validation:
// its targets are hardcoded endpoint templates, never user input.
type JSONClient struct {
	client  *http.Client
	retries int
	backoff time.Duration
}

func NewJSONClient(timeout time.Duration, retries int, backoff time.Duration) *JSONClient {
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if backoff == 0 {
		backoff = 300 * time.Millisecond
	}
	return &JSONClient{client: &http.Client{Timeout: timeout}, retries: retries, backoff: backoff}
}

// GetJSON fetches url and decodes the response body into out, retrying with
// exponential backoff on transport errors and non-2xx statuses.
func (c *JSONClient) GetJSON(ctx context.Context, reqURL string, headers map[string]string, out any) error {
	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// url.Error carries the full request URL, and provider keys ride
			// in query strings. Keep only the underlying cause.
			var ue *url.Error
			if errors.As(err, &ue) {
				err = fmt.Errorf("request failed: %w", ue.Err)
			}
			lastErr = err
		} else {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				err := json.NewDecoder(resp.Body).Decode(out)
				resp.Body.Close()
				return err
			}
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = errors.New(resp.Status + ": " + string(b))
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
