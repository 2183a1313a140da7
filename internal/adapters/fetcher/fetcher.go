// Package fetcher downloads product images into a local directory.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/okian/attreval/internal/domain/dedupe"
	"github.com/okian/attreval/pkg/logger"
	"github.com/okian/attreval/pkg/metrics"
)

const (
	defaultAttempts    = 3
	defaultRetryDelay  = 3 * time.Second
	defaultConcurrency = 16
	defaultTimeout     = 30 * time.Second
	dirPermission      = 0o750
)

type status int

const (
	fetched status = iota
	skipped
	failed
)

// Result summarizes a Fetch call.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// HTTPFetcher downloads images over HTTP with retries.
type HTTPFetcher struct {
	client      *http.Client
	attempts    int
	retryDelay  time.Duration
	concurrency int
	seen        dedupe.Deduper
	logger      logger.Logger
}

// New creates an HTTPFetcher with configuration options.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: defaultTimeout},
		attempts:    defaultAttempts,
		retryDelay:  defaultRetryDelay,
		concurrency: defaultConcurrency,
		seen:        dedupe.NewInMemoryDeduper(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("fetcher")
	}
	return f
}

// Fetch downloads every uri into dir. Individual failures are counted in the
// result and never fail the call; only an unusable dir or a cancelled ctx
// returns an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, uris []string, dir string) (Result, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return Result{}, fmt.Errorf("create image dir %s: %w", dir, err)
	}

	var nFetched, nSkipped, nFailed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, uri := range uris {
		g.Go(func() error {
			st, err := f.fetch(gctx, uri, dir)
			switch st {
			case fetched:
				nFetched.Add(1)
			case skipped:
				nSkipped.Add(1)
			case failed:
				nFailed.Add(1)
				f.logger.Debug(gctx, "image fetch failed", logger.String("uri", uri), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Fetched: int(nFetched.Load()),
		Skipped: int(nSkipped.Load()),
		Failed:  int(nFailed.Load()),
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("fetch images: %w", err)
	}
	return res, nil
}

// FetchOne downloads a single uri into dir.
func (f *HTTPFetcher) FetchOne(ctx context.Context, uri, dir string) error {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return fmt.Errorf("create image dir %s: %w", dir, err)
	}
	_, err := f.fetch(ctx, uri, dir)
	return err
}

// FileName returns the local file name for uri: the last path element.
func FileName(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrBadURI, uri, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: %s has no file name", ErrBadURI, uri)
	}
	return name, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, uri, dir string) (status, error) {
	name, err := FileName(uri)
	if err != nil {
		metrics.RecordImageFetch("failed")
		return failed, err
	}
	if f.seen.SeenAndRecord(ctx, uri) {
		metrics.RecordImageFetch("skipped")
		return skipped, nil
	}
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		metrics.RecordImageFetch("skipped")
		return skipped, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		f.seen.Unrecord(ctx, uri)
		metrics.RecordImageFetch("failed")
		return failed, fmt.Errorf("stat %s: %w", target, err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, f.download(ctx, uri, target)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(f.retryDelay)),
		backoff.WithMaxTries(uint(f.attempts)), //nolint:gosec // attempts > 0
	)
	if err != nil {
		f.seen.Unrecord(ctx, uri)
		metrics.RecordImageFetch("failed")
		metrics.RecordErrorByComponent("fetcher", "download_error")
		return failed, fmt.Errorf("download %s: %w", uri, err)
	}
	metrics.RecordImageFetch("fetched")
	return fetched, nil
}

// download writes the body of uri to target through a temp file.
// Client errors other than 429 are not retried.
func (f *HTTPFetcher) download(ctx context.Context, uri, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrBadURI, err))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".fetch-*")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return backoff.Permanent(fmt.Errorf("rename to %s: %w", target, err))
	}
	return nil
}
