package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Nixjoyer/Jump-Ship/internal/cart"
	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	mw "github.com/Nixjoyer/Jump-Ship/internal/middleware"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/config"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
	"github.com/Nixjoyer/Jump-Ship/internal/search"
	"github.com/Nixjoyer/Jump-Ship/internal/storage"
	"github.com/Nixjoyer/Jump-Ship/internal/view"
)

const catalogUnavailableMessage = "Unable to load inventory. Please try again later."

// app carries the process-wide dependencies shared by every handler.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	snapshot   *catalog.Snapshot
	engine     *search.Engine
	slot       storage.Slot
	sessions   *mw.Sessions
	templates  *templateSet
	catalogErr string

	// cartLocks serialises cart writes per session key across requests.
	cartLocks cart.Locks
}

func newApp(cfg config.Config, logger *zap.Logger, snapshot *catalog.Snapshot, slot storage.Slot) (*app, error) {
	if snapshot == nil {
		return nil, errors.New("web: catalog snapshot is required")
	}
	if slot == nil {
		return nil, errors.New("web: cart storage is required")
	}
	logger = observability.OrNop(logger)

	engine, err := search.NewEngine(snapshot, search.WithBrowseLimit(cfg.Search.BrowseLimit))
	if err != nil {
		return nil, err
	}
	sessions, err := mw.NewSessions(cfg.Session.SigningKey, logger, mw.WithSecureCookies(cfg.Production()))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		snapshot:  snapshot,
		engine:    engine,
		slot:      slot,
		sessions:  sessions,
		templates: newTemplateSet(cfg.Server.TemplatesDir, cfg.Server.DevMode),
	}, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(a.sessions.Handler)
	r.Use(mw.RequestLogger(a.logger.Named("http")))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	r.Handle("/assets/*", mw.AssetsWithCache(filepath.Join(a.cfg.Server.PublicDir, "assets"), "/assets"))

	r.Get("/", a.homeHandler)
	r.Get("/products/{id}", a.productHandler)
	r.Get("/product", a.productHandler)
	r.Get("/search", a.searchHandler)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", a.cartHandler)
		r.Get("/count", a.cartCountHandler)
		r.Post("/items", a.cartAddHandler)
		r.Post("/items/{id}/quantity", a.cartSetQuantityHandler)
		r.Post("/items/{id}/increase", a.cartStepHandler(1))
		r.Post("/items/{id}/decrease", a.cartStepHandler(-1))
		r.Post("/items/{id}/remove", a.cartRemoveHandler)
		r.Delete("/items/{id}", a.cartRemoveHandler)
	})
	r.Post("/checkout", a.checkoutHandler)
	r.Post("/newsletter", a.newsletterHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.renderStatus(w, r, http.StatusNotFound, "Page not found")
	})
	return r
}

// cartStore opens the cart owned by the request's session.
func (a *app) cartStore(r *http.Request) (*cart.Store, error) {
	key := cart.KeyFor(a.cfg.Cart.StorageKey, mw.SessionID(r.Context()))
	logger := observability.FromContext(r.Context())
	return cart.NewStore(a.slot,
		cart.WithKey(key),
		cart.WithLocker(a.cartLocks.Locker(key)),
		cart.WithLogger(logger),
		cart.WithObserver(logCartChange(logger)),
	)
}

func logCartChange(logger *zap.Logger) cart.Observer {
	return func(_ context.Context, c cart.Cart) {
		logger.Debug("cart updated",
			zap.Int("lines", len(c.Items)),
			zap.Int("units", c.Count()),
		)
	}
}

// templateSet parses every .tmpl under dir. In dev mode templates are reparsed
// on each render.
type templateSet struct {
	dir     string
	devMode bool

	once   sync.Once
	cached *template.Template
	err    error
}

func newTemplateSet(dir string, devMode bool) *templateSet {
	return &templateSet{dir: dir, devMode: devMode}
}

func (s *templateSet) warm() error {
	_, err := s.get()
	return err
}

func (s *templateSet) get() (*template.Template, error) {
	if s.devMode {
		return parseTemplates(s.dir)
	}
	s.once.Do(func() {
		s.cached, s.err = parseTemplates(s.dir)
	})
	return s.cached, s.err
}

func parseTemplates(dir string) (*template.Template, error) {
	// ParseGlob doesn't support **, walk instead.
	var files []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	return template.New("_root").Funcs(view.FuncMap()).ParseFiles(files...)
}

// renderPage executes the base layout for a full page.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	data.Path = r.URL.Path
	if data.CartCount == 0 {
		count, err := a.cartCount(r)
		if err != nil {
			observability.FromContext(r.Context()).Error("cart count failed", zap.Error(err))
		}
		data.CartCount = count
	}
	data.DebounceMillis = a.cfg.Search.Debounce.Milliseconds()
	a.renderTemplate(w, r, status, "base", data)
}

func (a *app) cartCount(r *http.Request) (int, error) {
	store, err := a.cartStore(r)
	if err != nil {
		return 0, err
	}
	return store.Count(r.Context())
}

// renderTemplate executes a single named template, usually a fragment.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := a.templates.get()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse failed", zap.Error(err))
		http.Error(w, "template parse error", http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

func (a *app) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	if mw.IsHTMX(r.Context()) {
		a.renderTemplate(w, r, status, "frag_status", message)
		return
	}
	a.renderPage(w, r, status, PageData{
		Title:   message,
		Page:    "status",
		Message: message,
	})
}
