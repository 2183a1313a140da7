package fetcher

import (
	"net/http"
	"time"

	"github.com/okian/attreval/internal/domain/dedupe"
	"github.com/okian/attreval/pkg/logger"
)

// Option applies a configuration option to the HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithAttempts sets how many times a download is tried.
func WithAttempts(n int) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithRetryDelay sets the delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d >= 0 {
			f.retryDelay = d
		}
	}
}

// WithConcurrency bounds the number of parallel downloads in Fetch.
func WithConcurrency(n int) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithDeduper sets the set of links already handled.
func WithDeduper(d dedupe.Deduper) Option {
	return func(f *HTTPFetcher) {
		if d != nil {
			f.seen = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
