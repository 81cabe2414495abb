package main

import (
	"github.com/Nixjoyer/Jump-Ship/internal/cart"
	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	"github.com/Nixjoyer/Jump-Ship/internal/search"
)

// PageData is the view model for the base layout.
type PageData struct {
	Title          string
	Page           string
	Path           string
	Message        string
	CartCount      int
	DebounceMillis int64

	Home       *HomeView
	Product    *ProductView
	Search     *SearchView
	Cart       *CartView
	Newsletter *NewsletterView
}

// HomeView lists the landing page sections.
type HomeView struct {
	Products   []catalog.Product
	Categories []catalog.Category
	Stats      []catalog.Stat
	Error      string
}

// ProductView is the detail page.
type ProductView struct {
	Product catalog.Product
}

// SearchView is the search results fragment.
type SearchView struct {
	Query    string
	Sort     string
	Products []catalog.Product
	Options  []SortOption
}

// SortOption is one entry of the sort selector.
type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// CartView is the cart panel fragment.
type CartView struct {
	Items   []CartLine
	Count   int
	Total   float64
	Message string
	Notice  string
}

// CartLine is one rendered cart row.
type CartLine struct {
	cart.LineItem
	Subtotal float64
}

func buildSearchView(query string, key search.SortKey, products []catalog.Product) *SearchView {
	options := []SortOption{
		{Value: string(search.SortRelevance), Label: "Relevance"},
		{Value: string(search.SortPriceAsc), Label: "Price: low to high"},
		{Value: string(search.SortPriceDesc), Label: "Price: high to low"},
	}
	for i := range options {
		options[i].Selected = options[i].Value == string(key)
	}
	return &SearchView{
		Query:    query,
		Sort:     string(key),
		Products: products,
		Options:  options,
	}
}

func buildCartView(c cart.Cart) *CartView {
	v := &CartView{
		Items: make([]CartLine, 0, len(c.Items)),
		Count: c.Count(),
		Total: c.Total(),
	}
	for _, item := range c.Items {
		single := cart.Cart{Items: []cart.LineItem{item}}
		v.Items = append(v.Items, CartLine{LineItem: item, Subtotal: single.Total()})
	}
	if c.Empty() {
		v.Message = cart.EmptyCartMessage
	}
	return v
}

// NewsletterView is the outcome of a newsletter signup.
type NewsletterView struct {
	Email   string
	Message string
	Invalid bool
}
