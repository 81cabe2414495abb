package search

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	"github.com/Nixjoyer/Jump-Ship/internal/price"
)

// DefaultBrowseLimit is the number of products shown for an empty query.
const DefaultBrowseLimit = 12

// HighlightClass is the CSS class wrapped around matched substrings.
const HighlightClass = "search-highlight"

var errSourceRequired = errors.New("search: product source is required")

// SortKey selects result ordering.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// ParseSortKey maps user input to a SortKey. Unknown values mean relevance.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.TrimSpace(raw)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	default:
		return SortRelevance
	}
}

// ProductSource yields the products to search, in catalog order. Implementations
// return a read-only view; the engine never writes to it.
type ProductSource interface {
	Products() []catalog.Product
}

// Engine filters and orders products from a source.
type Engine struct {
	source      ProductSource
	browseLimit int
}

// Option customises the Engine.
type Option func(*Engine)

// WithBrowseLimit overrides how many products an empty query returns.
func WithBrowseLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.browseLimit = n
		}
	}
}

// NewEngine constructs an Engine over source.
func NewEngine(source ProductSource, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errSourceRequired
	}
	e := &Engine{source: source, browseLimit: DefaultBrowseLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// BrowseLimit reports the configured empty-query cut.
func (e *Engine) BrowseLimit() int { return e.browseLimit }

// Search returns the products matching query ordered by key. An empty query
// returns the first BrowseLimit products. Name, category and rarity are
// matched case-insensitively as substrings. The result is always a fresh slice.
func (e *Engine) Search(query string, key SortKey) []catalog.Product {
	products := e.source.Products()
	q := strings.TrimSpace(query)

	var out []catalog.Product
	if q == "" {
		n := min(len(products), e.browseLimit)
		out = make([]catalog.Product, n)
		copy(out, products[:n])
	} else {
		fold := cases.Fold()
		needle := fold.String(q)
		out = make([]catalog.Product, 0, len(products))
		for _, p := range products {
			if matches(fold, p, needle) {
				out = append(out, p)
			}
		}
	}

	sortProducts(out, key)
	return out
}

func matches(fold cases.Caser, p catalog.Product, needle string) bool {
	for _, field := range [...]string{p.Name, p.Category, p.Rarity} {
		if field != "" && strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

func sortProducts(products []catalog.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return compareFloat(price.Parse(a.Price), price.Parse(b.Price))
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return compareFloat(price.Parse(b.Price), price.Parse(a.Price))
		})
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Span is a half-open byte range [Start, End) of a match within text.
type Span struct {
	Start int
	End   int
}

// Spans locates every case-insensitive, non-overlapping occurrence of query in
// text. The query is matched literally.
func Spans(text, query string) []Span {
	if query == "" || text == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return nil
	}
	idx := re.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(idx))
	for _, m := range idx {
		if m[1] > m[0] {
			spans = append(spans, Span{Start: m[0], End: m[1]})
		}
	}
	return spans
}

// Highlight wraps each occurrence of query in text with a highlight span. The
// text is not escaped; use view.HighlightHTML when rendering into HTML.
func Highlight(text, query string) string {
	spans := Spans(text, query)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(`<span class="` + HighlightClass + `">`)
		b.WriteString(text[s.Start:s.End])
		b.WriteString(`</span>`)
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}
