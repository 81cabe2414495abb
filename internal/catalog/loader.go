package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
)

// DefaultSource is the catalog document served next to the storefront.
const DefaultSource = "products.xml"

var tracer = observability.Tracer("catalog")

// Loader retrieves and parses the catalog document.
type Loader struct {
	http    *http.Client
	gcs     *storage.Client
	timeout time.Duration
	logger  *zap.Logger
}

// LoaderOption customises Loader behaviour.
type LoaderOption func(*Loader)

// WithHTTPClient overrides the client used for http(s) sources.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.http = client
		}
	}
}

// WithStorageClient supplies the Cloud Storage client used for gs:// sources.
// Without one the loader creates a client per gs:// load.
func WithStorageClient(client *storage.Client) LoaderOption {
	return func(l *Loader) {
		l.gcs = client
	}
}

// WithFetchTimeout bounds a single load. Zero leaves the fetch unbounded.
func WithFetchTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if timeout >= 0 {
			l.timeout = timeout
		}
	}
}

// WithLogger injects the logger used for load diagnostics.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = observability.OrNop(logger)
	}
}

// NewLoader constructs a Loader. The default HTTP client carries no timeout.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load fetches the document behind source and parses it into a Catalog. The
// source may be a filesystem path, a file://, http(s):// or gs:// URI. Files
// ending in .yaml or .yml are decoded as YAML, everything else as XML.
// Failures are reported as *FetchError or *ParseError.
func (l *Loader) Load(ctx context.Context, source string) (Catalog, error) {
	source = strings.TrimSpace(source)

	ctx, span := tracer.Start(ctx, "catalog.Load", trace.WithAttributes(attribute.String("catalog.source", source)))
	defer span.End()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	c, err := l.load(ctx, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "catalog load failed")
		l.logger.Warn("catalog load failed", zap.String("source", source), zap.Error(err))
		return Catalog{}, err
	}

	span.SetAttributes(
		attribute.Int("catalog.products", len(c.Products)),
		attribute.Int("catalog.categories", len(c.Categories)),
	)
	l.logger.Info("catalog loaded",
		zap.String("source", source),
		zap.Int("products", len(c.Products)),
		zap.Int("categories", len(c.Categories)),
		zap.Int("stats", len(c.Stats)),
	)
	return c, nil
}

func (l *Loader) load(ctx context.Context, source string) (Catalog, error) {
	if source == "" {
		return Catalog{}, &FetchError{Source: source, Err: errEmptySource}
	}

	data, err := l.fetch(ctx, source)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return Catalog{}, err
		}
		return Catalog{}, &FetchError{Source: source, Err: err}
	}

	c, err := Parse(data, formatFor(source))
	if err != nil {
		return Catalog{}, &ParseError{Source: source, Err: err}
	}
	return c, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetchHTTP(ctx, source)
	case strings.HasPrefix(source, "gs://"):
		return l.fetchGCS(ctx, source)
	case strings.HasPrefix(source, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(u.Path)
	default:
		return os.ReadFile(source)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml, application/yaml, text/xml, */*")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Source: source, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (l *Loader) fetchGCS(ctx context.Context, source string) ([]byte, error) {
	bucket, object, err := splitGCSURI(source)
	if err != nil {
		return nil, err
	}

	client := l.gcs
	if client == nil {
		client, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: storage client: %w", err)
		}
		defer client.Close()
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func splitGCSURI(source string) (string, string, error) {
	rest := strings.TrimPrefix(source, "gs://")
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("catalog: invalid gs uri %q", source)
	}
	return bucket, object, nil
}

func formatFor(source string) Format {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatXML
	}
}
