package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/config"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/secrets"
	"github.com/Nixjoyer/Jump-Ship/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jumpship web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slot, closeSlot, err := openSlot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSlot()

	snapshot := catalog.NewSnapshot(catalog.Catalog{})
	loader := catalog.NewLoader(
		catalog.WithFetchTimeout(cfg.Catalog.FetchTimeout),
		catalog.WithLogger(logger.Named("catalog")),
	)
	catalogErr := loadCatalog(ctx, loader, cfg.Catalog.Source, snapshot, logger)

	signingKey, err := resolveSigningKey(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cfg.Session.SigningKey = signingKey

	a, err := newApp(cfg, logger, snapshot, slot)
	if err != nil {
		return err
	}
	a.catalogErr = catalogErr
	if !cfg.Server.DevMode {
		if err := a.templates.warm(); err != nil {
			return fmt.Errorf("parse templates: %w", err)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		serverLogger.Info("jumpship web listening",
			zap.Bool("devMode", cfg.Server.DevMode),
			zap.String("cartBackend", cfg.Cart.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
		return nil
	})
	return g.Wait()
}

// loadCatalog fills snapshot from source. Failures leave the snapshot empty
// and return the shopper-facing fallback message.
func loadCatalog(ctx context.Context, loader *catalog.Loader, source string, snapshot *catalog.Snapshot, logger *zap.Logger) string {
	c, err := loader.Load(ctx, source)
	if err != nil {
		var fetchErr *catalog.FetchError
		var parseErr *catalog.ParseError
		switch {
		case errors.As(err, &fetchErr):
			logger.Error("catalog fetch failed", zap.String("source", source), zap.Int("statusCode", fetchErr.StatusCode), zap.Error(err))
		case errors.As(err, &parseErr):
			logger.Error("catalog parse failed", zap.String("source", source), zap.Error(err))
		default:
			logger.Error("catalog load failed", zap.String("source", source), zap.Error(err))
		}
		return catalogUnavailableMessage
	}
	snapshot.Store(c)
	logger.Info("catalog loaded",
		zap.String("source", source),
		zap.Int("products", len(c.Products)),
		zap.Int("categories", len(c.Categories)),
	)
	return ""
}

// openSlot builds the configured cart storage backend. The returned closer is never nil.
func openSlot(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Slot, func(), error) {
	noop := func() {}
	switch cfg.Cart.Backend {
	case config.BackendFile:
		slot, err := storage.NewFileSlot(cfg.Cart.FileDir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file cart storage: %w", err)
		}
		return slot, noop, nil
	case config.BackendFirestore:
		client, err := storage.NewFirestoreClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.EmulatorHost)
		if err != nil {
			return nil, noop, fmt.Errorf("open firestore cart storage: %w", err)
		}
		slot, err := storage.NewFirestoreSlot(client, cfg.Firestore.Collection)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return slot, closeFirestore(client, logger), nil
	default:
		logger.Warn("cart storage is in-memory; carts are lost on restart")
		return storage.NewMemorySlot(), noop, nil
	}
}

// resolveSigningKey returns the session signing key, resolving secret://
// references through Secret Manager or the local fallback file.
func resolveSigningKey(ctx context.Context, cfg config.Config, logger *zap.Logger) (string, error) {
	key := cfg.Session.SigningKey
	if !secrets.IsReference(key) {
		return key, nil
	}
	fetcher, err := newSecretFetcher(ctx, cfg, logger)
	if err != nil {
		return "", fmt.Errorf("init secret fetcher: %w", err)
	}
	defer func() { _ = fetcher.Close() }()

	value, err := fetcher.Resolve(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve session signing key: %w", err)
	}
	return value, nil
}

func newSecretFetcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (*secrets.Fetcher, error) {
	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(cfg.Secrets.FallbackFile),
	}
	if cfg.Secrets.ProjectID != "" {
		opts = append(opts, secrets.WithDefaultProject(cfg.Secrets.ProjectID))
	}
	if cfg.Secrets.CredentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(cfg.Secrets.CredentialsFile)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

func closeFirestore(client *firestore.Client, logger *zap.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("firestore close failed", zap.Error(err))
		}
	}
}
