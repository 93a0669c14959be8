package timesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient reads the current time from a world-time style endpoint that
// answers GET with a JSON body carrying an ISO-8601 "datetime" field.
type HTTPClient struct {
	client *http.Client
	url    string
	loc    *time.Location
}

type worldTimeResponse struct {
	Datetime string `json:"datetime"`
}

// NewHTTPClient new HTTPClient. The timeout bounds the whole request so a
// hung endpoint surfaces as ErrUnavailable instead of blocking the caller.
func NewHTTPClient(url string, timeout time.Duration, loc *time.Location) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url: url,
		loc: loc,
	}
}

// Now returns the authoritative current time, in the configured zone,
// truncated to seconds.
func (c *HTTPClient) Now(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to create time source request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to call time source: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return time.Time{}, fmt.Errorf("%w: time source returned non-successful status code: %d", ErrUnavailable, resp.StatusCode)
	}

	var body worldTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to decode time source response: %w", ErrUnavailable, err)
	}

	now, err := time.Parse(time.RFC3339Nano, body.Datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid datetime %q: %w", ErrUnavailable, body.Datetime, err)
	}

	now = now.In(c.loc).Truncate(time.Second)
	log.Ctx(ctx).Debug().Time("now", now).Str("url", c.url).Msg("time source answered")
	return now, nil
}
