package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Nixjoyer/Jump-Ship/internal/cart"
	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	mw "github.com/Nixjoyer/Jump-Ship/internal/middleware"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
)

// cartHandler renders the cart panel.
func (a *app) cartHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	c, err := store.Cart(r.Context())
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	a.renderCart(w, r, http.StatusOK, buildCartView(c))
}

// cartCountHandler returns the badge count as plain text.
func (a *app) cartCountHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	n, err := store.Count(r.Context())
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strconv.Itoa(n)))
}

// cartAddHandler adds a catalog product by id.
func (a *app) cartAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.FormValue("id"))
	product, err := a.snapshot.Catalog().FindProduct(id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		a.renderStatus(w, r, http.StatusNotFound, productNotFoundMessage)
		return
	}

	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	c, err := store.AddItem(r.Context(), product, formQuantity(r.FormValue("quantity")))
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	a.afterMutation(w, r, c)
}

// cartSetQuantityHandler sets an absolute quantity; zero or less removes the line.
func (a *app) cartSetQuantityHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	c, err := store.SetQuantity(r.Context(), chi.URLParam(r, "id"), quantity)
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	a.afterMutation(w, r, c)
}

// cartStepHandler backs the cart panel's + and - buttons.
func (a *app) cartStepHandler(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := a.openCart(w, r)
		if !ok {
			return
		}
		c, err := store.AdjustQuantity(r.Context(), chi.URLParam(r, "id"), delta)
		if err != nil {
			a.cartFailure(w, r, err)
			return
		}
		a.afterMutation(w, r, c)
	}
}

// cartRemoveHandler drops a line.
func (a *app) cartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	c, err := store.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	a.afterMutation(w, r, c)
}

// checkoutHandler runs the checkout placeholder.
func (a *app) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openCart(w, r)
	if !ok {
		return
	}
	res, err := store.Checkout(r.Context())
	if errors.Is(err, cart.ErrCartEmpty) {
		view := buildCartView(cart.Cart{})
		view.Notice = cart.EmptyCartMessage
		a.renderCart(w, r, http.StatusConflict, view)
		return
	}
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	c, err := store.Cart(r.Context())
	if err != nil {
		a.cartFailure(w, r, err)
		return
	}
	view := buildCartView(c)
	view.Notice = res.Message
	a.renderCart(w, r, http.StatusOK, view)
}

func (a *app) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	store, err := a.cartStore(r)
	if err != nil {
		a.cartFailure(w, r, err)
		return nil, false
	}
	return store, true
}

// afterMutation answers a cart change: htmx callers get the refreshed panel,
// plain form posts are redirected back.
func (a *app) afterMutation(w http.ResponseWriter, r *http.Request, c cart.Cart) {
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Trigger", "cart:changed")
		a.renderCart(w, r, http.StatusOK, buildCartView(c))
		return
	}
	target := "/cart"
	if ref := r.Referer(); ref != "" {
		target = ref
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (a *app) renderCart(w http.ResponseWriter, r *http.Request, status int, view *CartView) {
	if mw.IsHTMX(r.Context()) {
		a.renderTemplate(w, r, status, "frag_cart", view)
		return
	}
	a.renderPage(w, r, status, PageData{
		Title:     "Cart | Jump Ship",
		Page:      "cart",
		CartCount: view.Count,
		Cart:      view,
	})
}

func (a *app) cartFailure(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).Error("cart operation failed", zap.Error(err))
	http.Error(w, "cart unavailable", http.StatusInternalServerError)
}

// formQuantity mirrors the product page input: anything that is not a
// positive integer counts as one.
func formQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
