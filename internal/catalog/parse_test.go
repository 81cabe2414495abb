package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		format Format
	}{
		{"empty xml", "", FormatXML},
		{"plain text", "garbage", FormatXML},
		{"unclosed", "<inventory><products>", FormatXML},
		{"mismatched", "<inventory><stats></inventory>", FormatXML},
		{"missing id", `<inventory><products><product><name>X</name></product></products></inventory>`, FormatXML},
		{"duplicate id", `<products><product id="a"/><product id="a"/></products>`, FormatXML},
		{"empty yaml", "", FormatYAML},
		{"yaml unknown key", "products:\n  - id: a\n    colour: red\n", FormatYAML},
		{"yaml wrong shape", "products: nope\n", FormatYAML},
		{"yaml missing id", "products:\n  - name: A\n", FormatYAML},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			assert.Error(t, err)
		})
	}
}

func TestParseWellFormedEmptyInventory(t *testing.T) {
	c, err := Parse([]byte(`<inventory/>`), FormatXML)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestParseScopesCategoriesAndStats(t *testing.T) {
	doc := `<inventory>
  <featured><stat value="x" label="ignored"/></featured>
  <products>
    <product id="p1"><name>One</name><category>Relics</category></product>
  </products>
  <section><products><product id="p2"><name>Two</name></product></products></section>
</inventory>`
	c, err := Parse([]byte(doc), FormatXML)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, productIDs(c.Products))
	assert.Empty(t, c.Categories)
	assert.Empty(t, c.Stats)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), Format("json"))
	assert.Error(t, err)
}

func TestFindProduct(t *testing.T) {
	c := Catalog{Products: []Product{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}

	p, err := c.FindProduct("b")
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)

	_, err = c.FindProduct("zzz")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = c.FindProduct("")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSnapshot(t *testing.T) {
	var empty Snapshot
	assert.True(t, empty.Catalog().Empty())
	assert.Nil(t, empty.Products())

	icon := "*"
	src := Catalog{
		Products:   []Product{{ID: "a"}},
		Categories: []Category{{ID: "c", Icon: &icon}},
	}
	snap := NewSnapshot(src)

	src.Products[0].ID = "mutated"
	icon = "changed"

	got := snap.Catalog()
	assert.Equal(t, "a", got.Products[0].ID, "snapshot keeps its own copy")
	assert.Equal(t, "*", *got.Categories[0].Icon)
	assert.Len(t, snap.Products(), 1)
}
