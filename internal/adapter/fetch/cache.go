// Package fetch downloads remote inputs into a local cache directory.
package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
)

// Request outcomes reported to the fetch_requests_total metric.
const (
	OutcomeCached     = "cached"
	OutcomeDownloaded = "downloaded"
	OutcomeError      = "error"
)

// ErrNoFileName is returned for URLs whose path has no file name and no
// explicit target was given.
var ErrNoFileName = errors.New("cannot derive file name from url")

// Cache stores downloads under a directory and reuses them while fresh.
type Cache struct {
	dir        string
	httpClient *http.Client
	clock      clockwork.Clock
	maxAge     time.Duration
	retries    uint64
	backoff    func() backoff.BackOff
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces the clock used for freshness checks.
func WithClock(c clockwork.Clock) Option {
	return func(cache *Cache) { cache.clock = c }
}

// WithMaxAge makes cached files older than d stale. Zero keeps them forever.
func WithMaxAge(d time.Duration) Option {
	return func(cache *Cache) { cache.maxAge = d }
}

// WithRetries sets how many times a failed download is retried.
func WithRetries(n int) Option {
	return func(cache *Cache) { cache.retries = uint64(max(n, 0)) }
}

// WithBackOff replaces the retry schedule.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(cache *Cache) { cache.backoff = fn }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cache *Cache) { cache.httpClient = c }
}

// NewCache creates a download cache rooted at dir.
func NewCache(dir string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		dir:        dir,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clockwork.NewRealClock(),
		retries:    5,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache location for rawURL, or for name when given.
func (c *Cache) Path(rawURL, name string) (string, error) {
	if name != "" {
		if filepath.IsAbs(name) {
			return name, nil
		}
		return filepath.Join(c.dir, name), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return filepath.Join(c.dir, base), nil
}

// Fetch returns the local path of rawURL, downloading it when the cached
// copy is missing or older than the maximum age. name overrides the file
// name derived from the URL.
func (c *Cache) Fetch(ctx context.Context, rawURL, name string) (string, error) {
	dest, err := c.Path(rawURL, name)
	if err != nil {
		return "", err
	}
	if c.fresh(dest) {
		c.record(OutcomeCached)
		c.logger.Debug("using cached input", "path", dest)
		return dest, nil
	}
	if rawURL == "" {
		c.record(OutcomeError)
		return "", fmt.Errorf("fetch %s: %w", dest, os.ErrNotExist)
	}

	start := c.clock.Now()
	op := func() error { return c.download(ctx, rawURL, dest) }
	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.retries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("download failed, retrying", "url", rawURL, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		c.record(OutcomeError)
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	c.record(OutcomeDownloaded)
	c.logger.Info("input downloaded", "url", rawURL, "path", dest, "duration", c.clock.Since(start))
	return dest, nil
}

func (c *Cache) fresh(p string) bool {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return false
	}
	if c.maxAge <= 0 {
		return true
	}
	return c.clock.Since(info.ModTime()) < c.maxAge
}

// download writes rawURL to dest through a temporary file. Client errors
// (4xx) are permanent; server and transport errors are retried.
func (c *Cache) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("download error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return backoff.Permanent(fmt.Errorf("create cache dir: %w", err))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return backoff.Permanent(fmt.Errorf("rename temp file: %w", err))
	}
	return nil
}

func (c *Cache) record(outcome string) {
	if c.metrics != nil {
		c.metrics.FetchRequests.WithLabelValues(outcome).Inc()
	}
}

// Extract copies member out of the zip archive at archivePath into the cache
// directory and returns the extracted path. An existing extraction newer
// than the archive is reused.
func (c *Cache) Extract(archivePath, member string) (string, error) {
	dest := filepath.Join(c.dir, filepath.Base(member))
	if di, err := os.Stat(dest); err == nil {
		if ai, err := os.Stat(archivePath); err == nil && !di.ModTime().Before(ai.ModTime()) {
			return dest, nil
		}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	src, err := zr.Open(member)
	if err != nil {
		return "", fmt.Errorf("open %s in %s: %w", member, archivePath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("extract %s: %w", member, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	return dest, nil
}
