// Package discovery finds the page XML files of a volume and loads them with
// retries.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

// DefaultAttempts is the number of tries for each file before giving up.
const DefaultAttempts = 3

// ErrNoPages is returned when discovery finds no page files.
var ErrNoPages = errors.New("no page XML files found")

// LoadError names the path that could not be discovered or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Opener opens a page file for reading.
type Opener func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Loader discovers and parses page files.
type Loader struct {
	attempts uint
	open     Opener
}

// Option configures a Loader.
type Option func(*Loader)

// WithAttempts overrides the number of tries per file.
func WithAttempts(n uint) Option {
	return func(l *Loader) {
		if n > 0 {
			l.attempts = n
		}
	}
}

// WithOpener replaces the file opener.
func WithOpener(open Opener) Option {
	return func(l *Loader) {
		l.open = open
	}
}

// NewLoader creates a loader reading from the local filesystem.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		attempts: DefaultAttempts,
		open:     openFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discover resolves input to an ordered list of page files. input may be a
// directory (its *.xml files), a glob pattern or a single file. Pages are
// ordered by natural page ID so that "page_10" follows "page_9".
func (l *Loader) Discover(ctx context.Context, input string) ([]string, error) {
	paths, err := retry.DoWithData(
		func() ([]string, error) {
			return discover(input)
		},
		l.retryOptions(ctx)...,
	)
	if err != nil {
		return nil, &LoadError{Path: input, Err: err}
	}

	SortPaths(paths)
	slog.Debug("Discovered pages", "input", input, "pages", len(paths))
	return paths, nil
}

// IsHeadingsOutput reports whether path names a headings document written by
// the exporter rather than a page. Output may share a directory with the pages.
func IsHeadingsOutput(path string) bool {
	base := filepath.Base(path)
	return base == "headings.xml" || strings.HasSuffix(base, "_headings.xml")
}

func pagePaths(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if IsHeadingsOutput(p) {
			slog.Debug("Skipping headings output", "path", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func discover(input string) ([]string, error) {
	if strings.ContainsAny(input, "*?[") {
		paths, err := filepath.Glob(input)
		if err != nil {
			return nil, retry.Unrecoverable(err)
		}
		paths = pagePaths(paths)
		if len(paths) == 0 {
			return nil, retry.Unrecoverable(ErrNoPages)
		}
		return paths, nil
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	paths, err := filepath.Glob(filepath.Join(input, "*.xml"))
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	paths = pagePaths(paths)
	if len(paths) == 0 {
		return nil, retry.Unrecoverable(ErrNoPages)
	}
	return paths, nil
}

// LoadPage opens and parses one page file. Open and read failures are
// retried; malformed XML is not.
func (l *Loader) LoadPage(ctx context.Context, path string) (*pagexml.Page, error) {
	page, err := retry.DoWithData(
		func() (*pagexml.Page, error) {
			f, err := l.open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()

			page, err := pagexml.Parse(f, PageID(path))
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			return page, nil
		},
		l.retryOptions(ctx)...,
	)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return page, nil
}

// LoadVolume discovers and loads every page of input in page order.
func (l *Loader) LoadVolume(ctx context.Context, input string) ([]*pagexml.Page, error) {
	paths, err := l.Discover(ctx, input)
	if err != nil {
		return nil, err
	}

	pages := make([]*pagexml.Page, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := l.LoadPage(ctx, path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	slog.Info("Loaded volume pages", "input", input, "pages", len(pages))
	return pages, nil
}

func (l *Loader) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("Retrying page load", "attempt", n+1, "error", err)
		}),
	}
}

// PageID is the file name without directory or extension.
func PageID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SortPaths orders paths by natural page ID.
func SortPaths(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return NaturalLess(PageID(paths[i]), PageID(paths[j]))
	})
}

// NaturalLess compares strings treating runs of digits as numbers.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, ra := digitRun(a)
			nb, rb := digitRun(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = ra, rb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
