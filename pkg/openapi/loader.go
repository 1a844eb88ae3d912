package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrHTTPDisabled is returned for URL sources when neither an HTTP client
// nor the HTTP fallback was configured.
var ErrHTTPDisabled = errors.New("openapi: http sources are disabled")

// LoaderOptions configures how sources are read.
type LoaderOptions struct {
	// FileSystem backs SourceKindFS sources.
	FileSystem fs.FS

	// HTTPClient fetches URL sources. Nil disables them unless
	// AllowHTTPFallback is set.
	HTTPClient *http.Client

	// AllowHTTPFallback uses http.DefaultClient when HTTPClient is nil.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations.
	RequestTimeout time.Duration

	// Document controls parsing of the fetched payload.
	Document Options
}

// LoaderOption mutates LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS for SourceFromFS locations.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote documents.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables HTTP loading using http.DefaultClient and assigns an
// optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// WithDocumentOptions sets the parse options used by LoadSource.
func WithDocumentOptions(options Options) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Document = options
	}
}

// NewLoaderOptions applies options over the zero configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// Fetch reads the raw bytes behind src.
func Fetch(ctx context.Context, src Source, options ...LoaderOption) ([]byte, error) {
	if src == nil {
		return nil, errors.New("openapi: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := NewLoaderOptions(options...)

	switch src.Kind() {
	case SourceKindFile:
		data, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location(), err)
		}
		return data, nil
	case SourceKindFS:
		if cfg.FileSystem == nil {
			return nil, fmt.Errorf("openapi: fs source %q without a file system", src.Location())
		}
		data, err := fs.ReadFile(cfg.FileSystem, src.Location())
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location(), err)
		}
		return data, nil
	case SourceKindURL:
		return fetchURL(ctx, src.Location(), cfg)
	default:
		return nil, fmt.Errorf("openapi: unsupported source kind %q", src.Kind())
	}
}

func fetchURL(ctx context.Context, location string, cfg LoaderOptions) ([]byte, error) {
	client := cfg.HTTPClient
	if client == nil {
		if !cfg.AllowHTTPFallback {
			return nil, ErrHTTPDisabled
		}
		client = http.DefaultClient
	}
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openapi: fetch %s: status %d", location, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	return data, nil
}

// LoadSource fetches and parses the document behind src.
func LoadSource(ctx context.Context, src Source, options ...LoaderOption) (*openapi3.T, error) {
	data, err := Fetch(ctx, src, options...)
	if err != nil {
		return nil, err
	}
	return Load(ctx, data, NewLoaderOptions(options...).Document)
}
