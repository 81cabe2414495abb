package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
)

type staticSource []catalog.Product

func (s staticSource) Products() []catalog.Product { return s }

var fixture = staticSource{
	{ID: "drakon-egg", Name: "Drakon Egg", Category: "Xeno Fauna", Price: "₢500", Rarity: "Legendary"},
	{ID: "void-lantern", Name: "Void Lantern", Category: "Relics", Price: "₢1,250", Rarity: "Rare"},
	{ID: "drake-claw", Name: "Drake Claw", Category: "Relics", Price: "₢200", Rarity: "Rare"},
	{ID: "star-map", Name: "Star Map", Category: "Charts", Price: "₢75"},
}

func newTestEngine(t *testing.T, src ProductSource, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(src, opts...)
	require.NoError(t, err)
	return e
}

func ids(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestNewEngineRequiresSource(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestEmptyQueryBrowsesFirstTwelve(t *testing.T) {
	src := make(staticSource, 20)
	for i := range src {
		src[i] = catalog.Product{ID: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("Item %d", i), Price: fmt.Sprintf("₢%d", 100-i)}
	}
	e := newTestEngine(t, src)

	got := e.Search("   ", SortRelevance)
	require.Len(t, got, 12)
	assert.Equal(t, ids(src[:12]), ids(got))

	got = e.Search("", SortPriceAsc)
	require.Len(t, got, 12)
	assert.Equal(t, "p11", got[0].ID, "sorting applies after the browse cut")
}

func TestBrowseLimitOption(t *testing.T) {
	e := newTestEngine(t, fixture, WithBrowseLimit(2), WithBrowseLimit(0))
	assert.Equal(t, 2, e.BrowseLimit())
	assert.Equal(t, []string{"drakon-egg", "void-lantern"}, ids(e.Search("", SortRelevance)))
}

func TestSearch(t *testing.T) {
	e := newTestEngine(t, fixture)

	cases := []struct {
		name  string
		query string
		key   SortKey
		want  []string
	}{
		{"prefix price asc", "drak", SortPriceAsc, []string{"drake-claw", "drakon-egg"}},
		{"prefix relevance keeps catalog order", "drak", SortRelevance, []string{"drakon-egg", "drake-claw"}},
		{"price desc", "r", SortPriceDesc, []string{"void-lantern", "drakon-egg", "drake-claw", "star-map"}},
		{"case insensitive with padding", "  RELICS ", SortRelevance, []string{"void-lantern", "drake-claw"}},
		{"rarity", "legend", SortRelevance, []string{"drakon-egg"}},
		{"no match", "kraken", SortRelevance, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(e.Search(tc.query, tc.key)))
		})
	}
}

func TestSearchEqualPricesAreStable(t *testing.T) {
	src := staticSource{
		{ID: "a", Name: "Orb", Price: "₢5"},
		{ID: "b", Name: "Orb", Price: "free"},
		{ID: "c", Name: "Orb", Price: "₢5"},
		{ID: "d", Name: "Orb", Price: "₢0"},
	}
	e := newTestEngine(t, src)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(e.Search("orb", SortPriceAsc)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(e.Search("orb", SortPriceDesc)))
}

func TestSearchDoesNotMutateSource(t *testing.T) {
	src := append(staticSource(nil), fixture...)
	before := ids(src)
	e := newTestEngine(t, src)

	got := e.Search("", SortPriceDesc)
	got[0].Name = "changed"
	_ = e.Search("r", SortPriceAsc)

	assert.Equal(t, before, ids(src))
	assert.Equal(t, "Drakon Egg", src[0].Name)
}

func TestSearchEmptyCatalog(t *testing.T) {
	e := newTestEngine(t, catalog.NewSnapshot(catalog.Catalog{}))
	assert.Empty(t, e.Search("", SortRelevance))
	assert.Empty(t, e.Search("drak", SortRelevance))
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortKey("price-asc"))
	assert.Equal(t, SortPriceDesc, ParseSortKey(" price-desc "))
	assert.Equal(t, SortRelevance, ParseSortKey("relevance"))
	assert.Equal(t, SortRelevance, ParseSortKey("cheapest"))
	assert.Equal(t, SortRelevance, ParseSortKey(""))
}

func TestHighlight(t *testing.T) {
	cases := []struct {
		text, query, want string
	}{
		{"Drake Claw", "drake", `<span class="search-highlight">Drake</span> Claw`},
		{"x", "", "x"},
		{"Drake Claw", "kraken", "Drake Claw"},
		{"aAa", "a", `<span class="search-highlight">a</span><span class="search-highlight">A</span><span class="search-highlight">a</span>`},
		{"Price (₢5)", "(₢5)", `Price <span class="search-highlight">(₢5)</span>`},
		{"a.b", ".", `a<span class="search-highlight">.</span>b`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Highlight(tc.text, tc.query), "%q / %q", tc.text, tc.query)
	}
}

func TestSpans(t *testing.T) {
	assert.Equal(t, []Span{{Start: 0, End: 5}}, Spans("Drake Claw", "DRAKE"))
	assert.Equal(t, []Span{{Start: 1, End: 2}, {Start: 3, End: 4}}, Spans("a.b.", "."))
	assert.Nil(t, Spans("Drake", ""))
	assert.Nil(t, Spans("", "x"))
}
