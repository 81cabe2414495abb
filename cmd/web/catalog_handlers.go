package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	mw "github.com/Nixjoyer/Jump-Ship/internal/middleware"
	"github.com/Nixjoyer/Jump-Ship/internal/search"
)

const productNotFoundMessage = "Product not found"

// homeHandler renders the landing page.
func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	c := a.snapshot.Catalog()
	a.renderPage(w, r, http.StatusOK, PageData{
		Title: "Jump Ship",
		Page:  "home",
		Home: &HomeView{
			Products:   c.Products,
			Categories: c.Categories,
			Stats:      c.Stats,
			Error:      a.catalogErr,
		},
	})
}

// productHandler renders one product, addressed by path or by ?id=.
func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}

	if a.catalogErr != "" {
		a.renderStatus(w, r, http.StatusServiceUnavailable, "Unable to load product")
		return
	}
	product, err := a.snapshot.Catalog().FindProduct(id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		a.renderStatus(w, r, http.StatusNotFound, productNotFoundMessage)
		return
	}
	if err != nil {
		a.renderStatus(w, r, http.StatusInternalServerError, "Unable to load product")
		return
	}

	a.renderPage(w, r, http.StatusOK, PageData{
		Title:   product.Name + " | Jump Ship",
		Page:    "product",
		Product: &ProductView{Product: product},
	})
}

// searchHandler answers the live search panel. htmx requests get the results
// fragment, others a full page.
func (a *app) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	key := search.ParseSortKey(r.URL.Query().Get("sort"))
	sv := buildSearchView(query, key, a.engine.Search(query, key))

	if mw.IsHTMX(r.Context()) {
		a.renderTemplate(w, r, http.StatusOK, "frag_search", sv)
		return
	}
	title := "Search | Jump Ship"
	if query != "" {
		title = query + " | " + title
	}
	a.renderPage(w, r, http.StatusOK, PageData{
		Title:  title,
		Page:   "search",
		Search: sv,
	})
}
