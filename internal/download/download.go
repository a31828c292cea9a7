package download

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
	"strings"

	"golang.org/x/sync/errgroup"

	"examhub.org/internal/ids"
)

var ErrInvalidInput = errors.New("download: invalid input")

const defaultConcurrency = 4

// Fetcher downloads remote files into a local directory with a bounded
// worker pool so one large batch cannot starve the process.
type Fetcher struct {
	dir         string
	client      *http.Client
	concurrency int
}

// Option configures Fetcher behavior.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client. Only useful in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithConcurrency bounds the number of parallel downloads.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFetcher builds a fetcher writing into dir.
func NewFetcher(dir string, opts ...Option) (*Fetcher, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("%w: download directory is required", ErrInvalidInput)
	}
	f := &Fetcher{
		dir:         dir,
		client:      http.DefaultClient,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchAll downloads every URL and returns the local file paths in input
// order. The first failure cancels the remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no urls given", ErrInvalidInput)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	paths := make([]string, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, raw := range urls {
		i, raw := i, raw
		g.Go(func() error {
			local, err := f.fetchOne(ctx, raw)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", raw, err)
			}
			paths[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: malformed url", ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, local, err := f.createLocal(localName(parsed))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(local)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return local, nil
}

// createLocal opens a fresh file for the download. When another URL in the
// batch already claimed the name, the id suffix keeps the files apart.
func (f *Fetcher) createLocal(name string) (*os.File, string, error) {
	local := filepath.Join(f.dir, name)
	out, err := os.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return out, local, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, "", err
	}
	ext := filepath.Ext(name)
	local = filepath.Join(f.dir, strings.TrimSuffix(name, ext)+"-"+ids.New()+ext)
	out, err = os.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", err
	}
	return out, local, nil
}

// localName derives a file name from the URL path, falling back to a
// generated id when the path carries none.
func localName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return ids.New()
	}
	return base
}
