package catalog

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the catalog document encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

type xmlProduct struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name"`
	Category string `xml:"category"`
	Price    string `xml:"price"`
	Image    string `xml:"image"`
	Rarity   string `xml:"rarity"`
}

type xmlCategory struct {
	ID          string  `xml:"id,attr"`
	Icon        *string `xml:"icon,attr"`
	Name        string  `xml:"name"`
	Description string  `xml:"description"`
	Count       string  `xml:"count"`
}

type xmlStat struct {
	Value string `xml:"value,attr"`
	Label string `xml:"label,attr"`
}

type yamlDocument struct {
	Products   []yamlProduct  `yaml:"products"`
	Categories []yamlCategory `yaml:"categories"`
	Stats      []yamlStat     `yaml:"stats"`
}

type yamlProduct struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Price    string `yaml:"price"`
	Image    string `yaml:"image"`
	Rarity   string `yaml:"rarity"`
}

type yamlCategory struct {
	ID          string  `yaml:"id"`
	Icon        *string `yaml:"icon"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Count       string  `yaml:"count"`
}

type yamlStat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Parse decodes a catalog document and validates it against the catalog schema.
func Parse(data []byte, format Format) (Catalog, error) {
	var (
		c   Catalog
		err error
	)
	switch format {
	case FormatYAML:
		c, err = parseYAML(data)
	case FormatXML, "":
		c, err = parseXML(data)
	default:
		return Catalog{}, fmt.Errorf("catalog: unsupported format %q", format)
	}
	if err != nil {
		return Catalog{}, err
	}
	if err := validate(c); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// parseXML walks the token stream so that <product> elements are found at any
// depth while <category> and <stat> only count inside their list elements; a
// product's own <category> child must not be mistaken for a category record.
func parseXML(data []byte) (Catalog, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		c       Catalog
		stack   []string
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Catalog{}, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			switch {
			case el.Name.Local == "product":
				var p xmlProduct
				if err := dec.DecodeElement(&p, &el); err != nil {
					return Catalog{}, err
				}
				c.Products = append(c.Products, Product{
					ID:       strings.TrimSpace(p.ID),
					Name:     strings.TrimSpace(p.Name),
					Category: strings.TrimSpace(p.Category),
					Price:    strings.TrimSpace(p.Price),
					Image:    strings.TrimSpace(p.Image),
					Rarity:   strings.TrimSpace(p.Rarity),
				})
				continue
			case el.Name.Local == "category" && parent == "categories":
				var cat xmlCategory
				if err := dec.DecodeElement(&cat, &el); err != nil {
					return Catalog{}, err
				}
				c.Categories = append(c.Categories, Category{
					ID:          strings.TrimSpace(cat.ID),
					Name:        strings.TrimSpace(cat.Name),
					Description: strings.TrimSpace(cat.Description),
					Count:       strings.TrimSpace(cat.Count),
					Icon:        cat.Icon,
				})
				continue
			case el.Name.Local == "stat" && parent == "stats":
				var s xmlStat
				if err := dec.DecodeElement(&s, &el); err != nil {
					return Catalog{}, err
				}
				c.Stats = append(c.Stats, Stat{
					Value: strings.TrimSpace(s.Value),
					Label: strings.TrimSpace(s.Label),
				})
				continue
			}
			stack = append(stack, el.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !sawRoot {
		return Catalog{}, errEmptyDocument
	}
	return c, nil
}

func parseYAML(data []byte) (Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, errEmptyDocument
		}
		return Catalog{}, err
	}

	var c Catalog
	for _, p := range doc.Products {
		c.Products = append(c.Products, Product{
			ID:       strings.TrimSpace(p.ID),
			Name:     strings.TrimSpace(p.Name),
			Category: strings.TrimSpace(p.Category),
			Price:    strings.TrimSpace(p.Price),
			Image:    strings.TrimSpace(p.Image),
			Rarity:   strings.TrimSpace(p.Rarity),
		})
	}
	for _, cat := range doc.Categories {
		c.Categories = append(c.Categories, Category{
			ID:          strings.TrimSpace(cat.ID),
			Name:        strings.TrimSpace(cat.Name),
			Description: strings.TrimSpace(cat.Description),
			Count:       strings.TrimSpace(cat.Count),
			Icon:        cat.Icon,
		})
	}
	for _, s := range doc.Stats {
		c.Stats = append(c.Stats, Stat{
			Value: strings.TrimSpace(s.Value),
			Label: strings.TrimSpace(s.Label),
		})
	}
	return c, nil
}

func validate(c Catalog) error {
	seen := make(map[string]int, len(c.Products))
	for i, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("catalog: product #%d has no id", i+1)
		}
		if first, ok := seen[p.ID]; ok {
			return fmt.Errorf("catalog: product id %q repeated at #%d and #%d", p.ID, first+1, i+1)
		}
		seen[p.ID] = i
	}
	return nil
}
