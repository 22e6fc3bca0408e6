package schema

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/reoring/manifestnorm/internal/logger"
)

const (
	defaultRetries = 2
	defaultBackoff = 200 * time.Millisecond
)

// HTTPResolver fetches http and https URIs. Transient failures (transport
// errors, 429 and 5xx responses) are retried with exponential backoff.
type HTTPResolver struct {
	client  *resty.Client
	retries uint64
	backoff time.Duration
}

// HTTPOption configures an HTTPResolver.
type HTTPOption func(*HTTPResolver)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(r *HTTPResolver) { r.client = resty.NewWithClient(hc) }
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64) HTTPOption {
	return func(r *HTTPResolver) { r.retries = n }
}

// WithBackoff sets the base delay of the exponential backoff.
func WithBackoff(d time.Duration) HTTPOption {
	return func(r *HTTPResolver) { r.backoff = d }
}

// NewHTTPResolver returns a resolver that retries transient failures with
// exponential backoff.
func NewHTTPResolver(opts ...HTTPOption) *HTTPResolver {
	r := &HTTPResolver{
		client:  resty.New(),
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.client.SetHeader("Accept", "application/schema+json, application/json;q=0.9, */*;q=0.5")
	return r
}

func (r *HTTPResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	log := logger.FromContext(ctx).With("uri", uri)
	var body []byte
	attempt := 0
	backoff := retry.WithMaxRetries(r.retries, retry.NewExponential(r.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := r.client.R().SetContext(ctx).Get(uri)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug("schema fetch failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		code := resp.StatusCode()
		switch {
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			log.Debug("schema fetch failed", "attempt", attempt, "status", code)
			return retry.RetryableError(fmt.Errorf("GET %s: %s", uri, resp.Status()))
		case code < 200 || code > 299:
			return fmt.Errorf("GET %s: %s", uri, resp.Status())
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, uri, err)
	}
	log.Debug("schema fetched", "attempts", attempt, "bytes", len(body))
	return body, nil
}
