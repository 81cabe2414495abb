package catalog

import "errors"

// ErrProductNotFound indicates the requested product id is absent from the catalog.
var ErrProductNotFound = errors.New("catalog: product not found")

// Product is a single sellable item. Products are never mutated after loading.
type Product struct {
	ID       string
	Name     string
	Category string
	// Price is display formatted, e.g. "₢1,250".
	Price  string
	Image  string
	Rarity string
}

// Category groups products for the landing page listing.
type Category struct {
	ID          string
	Name        string
	Description string
	Count       string
	// Icon is nil when the source omits the attribute.
	Icon *string
}

// Stat is a decorative headline figure.
type Stat struct {
	Value string
	Label string
}

// Catalog is the in-memory collection loaded once per process.
type Catalog struct {
	Products   []Product
	Categories []Category
	Stats      []Stat
}

// Empty reports whether the catalog holds no records at all.
func (c Catalog) Empty() bool {
	return len(c.Products) == 0 && len(c.Categories) == 0 && len(c.Stats) == 0
}

// FindProduct returns the product with the given id.
func (c Catalog) FindProduct(id string) (Product, error) {
	if id == "" {
		return Product{}, ErrProductNotFound
	}
	for _, p := range c.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (c Catalog) clone() Catalog {
	out := Catalog{
		Products: append([]Product(nil), c.Products...),
		Stats:    append([]Stat(nil), c.Stats...),
	}
	if c.Categories != nil {
		out.Categories = make([]Category, len(c.Categories))
		for i, cat := range c.Categories {
			if cat.Icon != nil {
				icon := *cat.Icon
				cat.Icon = &icon
			}
			out.Categories[i] = cat
		}
	}
	return out
}
