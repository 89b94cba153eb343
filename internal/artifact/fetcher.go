package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"bsrbot/internal/logging"
	"bsrbot/internal/services"
	"bsrbot/internal/textutil"
)

// ArchiveExt is appended to the hash to name downloaded archives.
const ArchiveExt = ".zip"

// Fetcher streams artifacts into the scratch directory.
type Fetcher struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher constructs a fetcher writing into dir.
func NewFetcher(dir string, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		dir:        dir,
		httpClient: &http.Client{},
		logger:     logging.NewComponentLogger(logger, "artifact"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ArchivePath returns where the archive for hash is stored.
func (f *Fetcher) ArchivePath(hash string) string {
	return filepath.Join(f.dir, hash+ArchiveExt)
}

// Fetch downloads url into <dir>/<hash>.zip and returns the file path. A
// partially written file is removed on failure.
func (f *Fetcher) Fetch(ctx context.Context, url, hash string) (string, error) {
	if !textutil.IsSafeKey(hash) {
		return "", services.Wrap(services.ErrValidation, "download", "prepare", fmt.Sprintf("unsafe artifact key %q", hash), nil)
	}
	logger := logging.WithContext(ctx, f.logger)
	target := f.ArchivePath(hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "download", "prepare", "build request", err)
	}

	logger.Info("downloading map archive", logging.String("url", url), logging.String("path", target))
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "request", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", services.Wrap(services.ErrTransient, "download", "request", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create archive %s: %w", target, err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target)
		return "", services.Wrap(services.ErrTransient, "download", "write", target, err)
	}

	logger.Info("map archive downloaded",
		logging.String("path", target),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(start)),
	)
	return target, nil
}
