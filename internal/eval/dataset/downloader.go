package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"
)

// DefaultCacheDir is where downloaded index files are kept
const DefaultCacheDir = "~/.cache/incunabula/index"

// DownloadConfig configures index downloading
type DownloadConfig struct {
	CacheDir      string
	ForceDownload bool
	Token         string // bearer token for protected exports
	Attempts      uint
	Client        *http.Client
}

// Downloader fetches and caches index exports published over HTTP
type Downloader struct {
	config DownloadConfig
}

// NewDownloader creates a new index downloader
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if config.Attempts == 0 {
		config.Attempts = 3
	}
	if config.Client == nil {
		config.Client = http.DefaultClient
	}

	// Expand ~ to home directory
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}

	return &Downloader{
		config: config,
	}
}

// IsRemote reports whether an index location is an http(s) URL
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Download fetches rawURL into the cache unless it is already there and
// returns the cached path
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	cachedPath, err := d.CachePath(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cachedPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached index", "path", cachedPath)
			return cachedPath, nil
		}
	}

	slog.Info("Downloading index", "url", rawURL)
	err = retry.Do(
		func() error { return d.downloadFile(ctx, rawURL, cachedPath) },
		retry.Context(ctx),
		retry.Attempts(d.config.Attempts),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Index download failed, retrying", "url", rawURL, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to download index: %w", err)
	}

	slog.Info("Index downloaded successfully", "path", cachedPath)
	return cachedPath, nil
}

// CachePath returns where rawURL would be cached. The file keeps the URL's
// base name so the loader can pick the format from its extension.
func (d *Downloader) CachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid index URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("index URL %q has no file name", rawURL)
	}
	return filepath.Join(d.config.CacheDir, u.Host, name), nil
}

// downloadFile downloads a file from a URL to a local path
func (d *Downloader) downloadFile(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}

	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.config.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("download failed with status: %d", resp.StatusCode)
		// client errors will not go away on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Unrecoverable(err)
		}
		return err
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}
	slog.Debug("Downloaded index bytes", "bytes", n, "total", resp.ContentLength)

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}

// ClearCache removes all cached index files
func (d *Downloader) ClearCache() error {
	slog.Info("Clearing cache", "path", d.config.CacheDir)
	return os.RemoveAll(d.config.CacheDir)
}

// LoadOrDownload returns a Loader for location, downloading it first when it
// is a URL
func LoadOrDownload(ctx context.Context, location string, config DownloadConfig, opts ...LoaderOption) (*Loader, error) {
	if !IsRemote(location) {
		return NewLoader(location, opts...), nil
	}

	indexPath, err := NewDownloader(config).Download(ctx, location)
	if err != nil {
		return nil, err
	}

	return NewLoader(indexPath, opts...), nil
}
