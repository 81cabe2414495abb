// Package secrets resolves secret:// references through Google Secret Manager,
// with a local key=value file for development.
package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
)

const (
	// Scheme prefixes every secret reference.
	Scheme = "secret://"

	defaultFallbackPath = ".secrets.local"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references, caching each resolved version.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	logger     *zap.Logger
	project    string

	fallbackPath string
	fallbackOnce sync.Once
	fallbackVals map[string]string
	fallbackErr  error

	mu    sync.RWMutex
	cache map[string]string

	latency        metric.Float64Histogram
	latencyEnabled bool
}

type fetcherConfig struct {
	logger       *zap.Logger
	project      string
	fallbackPath string
	meter        metric.Meter
	client       secretManagerClient
	clientOpts   []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) {
		cfg.logger = logger
	}
}

// WithDefaultProject sets the project used when a reference carries no ?project=.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) {
		cfg.project = strings.TrimSpace(projectID)
	}
}

// WithFallbackFile overrides the path to the local fallback secrets file.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) {
		cfg.fallbackPath = strings.TrimSpace(path)
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *fetcherConfig) {
		cfg.meter = m
	}
}

// WithSecretManagerClient injects a preconfigured Secret Manager client.
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = client
	}
}

// WithClientOptions forwards Cloud client options when constructing the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// NewFetcher builds a Fetcher. When no client is injected and none can be
// created, it runs from the fallback file alone.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = observability.OrNop(cfg.logger)

	meter := cfg.meter
	if meter == nil {
		meter = observability.Meter("secrets")
	}
	latency, latencyErr := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for secret fetch attempts"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("secrets: unable to register latency metric", zap.Error(latencyErr))
	}

	f := &Fetcher{
		logger:         cfg.logger,
		project:        cfg.project,
		fallbackPath:   cfg.fallbackPath,
		cache:          make(map[string]string),
		latency:        latency,
		latencyEnabled: latencyErr == nil,
	}

	if cfg.client != nil {
		f.client = cfg.client
		return f, nil
	}
	if f.project == "" {
		return f, nil
	}
	client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
	if err != nil {
		cfg.logger.Warn("secrets: secret manager client unavailable; operating in fallback mode", zap.Error(err))
		return f, nil
	}
	f.client = client
	f.ownsClient = true
	return f, nil
}

// Close releases the Secret Manager client when the fetcher created it.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// IsReference reports whether value is a secret:// reference rather than a literal.
func IsReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), Scheme)
}

// Resolve returns the secret value for ref. Secret Manager is consulted first
// when a project is known; permission, auth and availability failures fall
// back to the local file.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}
	key := parsed.Canonical + "#" + parsed.Version + "@" + parsed.Project

	f.mu.RLock()
	value, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		f.recordLatency(ctx, time.Since(start), "cache", nil)
		return value, nil
	}

	project := parsed.Project
	if project == "" {
		project = f.project
	}
	if project != "" && f.client != nil {
		value, err := f.fetchRemote(ctx, project, parsed)
		if err == nil {
			f.store(key, value)
			f.recordLatency(ctx, time.Since(start), "remote", nil)
			return value, nil
		}
		if !isFallbackError(err) {
			f.recordLatency(ctx, time.Since(start), "error", err)
			return "", fmt.Errorf("secrets: fetch failed for %s: %w", parsed.Canonical, err)
		}
		f.logger.Debug("secrets: falling back to local secrets", zap.String("ref", parsed.Canonical), zap.Error(err))
	}

	value, ok = f.lookupFallback(parsed)
	if !ok {
		err := fmt.Errorf("secrets: fallback value not found for %s", parsed.Canonical)
		f.recordLatency(ctx, time.Since(start), "error", err)
		return "", err
	}
	f.store(key, value)
	f.recordLatency(ctx, time.Since(start), "fallback", nil)
	return value, nil
}

func (f *Fetcher) store(key, value string) {
	f.mu.Lock()
	f.cache[key] = value
	f.mu.Unlock()
}

func (f *Fetcher) fetchRemote(ctx context.Context, project string, ref parsedReference) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, ref.Secret, ref.Version)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.GetPayload() == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", name)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (f *Fetcher) lookupFallback(ref parsedReference) (string, bool) {
	f.fallbackOnce.Do(f.loadFallback)
	if f.fallbackErr != nil {
		f.logger.Warn("secrets: fallback load error", zap.Error(f.fallbackErr))
		return "", false
	}
	v, ok := f.fallbackVals[ref.Canonical]
	return v, ok
}

func (f *Fetcher) loadFallback() {
	f.fallbackVals = map[string]string{}
	if f.fallbackPath == "" {
		return
	}
	absPath, err := filepath.Abs(f.fallbackPath)
	if err != nil {
		absPath = f.fallbackPath
	}
	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		f.fallbackErr = fmt.Errorf("secrets: unable to open fallback file %s: %w", absPath, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Keys are secret names, with or without the scheme; values may contain '='.
		k, v, ok := strings.Cut(strings.TrimPrefix(line, Scheme), "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		parsed, err := parseReference(Scheme + strings.TrimSpace(k))
		if err != nil {
			continue
		}
		f.fallbackVals[parsed.Canonical] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		f.fallbackErr = fmt.Errorf("secrets: failed reading %s: %w", absPath, err)
	}
}

func (f *Fetcher) recordLatency(ctx context.Context, d time.Duration, source string, err error) {
	if !f.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("source", source)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	f.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

type parsedReference struct {
	Canonical string
	Secret    string
	Version   string
	Project   string
}

func parseReference(ref string) (parsedReference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return parsedReference{}, errors.New("secrets: empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return parsedReference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return parsedReference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	secret := strings.Trim(u.Host+u.Path, "/")
	if secret == "" {
		return parsedReference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	q := u.Query()
	version := strings.TrimSpace(q.Get("version"))
	if version == "" {
		version = "latest"
	}
	return parsedReference{
		Canonical: Scheme + secret,
		Secret:    secret,
		Version:   version,
		Project:   strings.TrimSpace(q.Get("project")),
	}, nil
}

func isFallbackError(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
