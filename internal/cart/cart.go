package cart

import (
	"encoding/json"
	"fmt"

	"github.com/Nixjoyer/Jump-Ship/internal/price"
)

// StorageKeyBase is the slot key the cart lives under.
const StorageKeyBase = "jumpship_cart"

// MaxQuantity caps a single line's quantity.
const MaxQuantity = 9999

// LineItem is one product entry in the cart. Name, Price and Image are copied
// from the product when it is first added.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Cart is the ordered set of line items, in first-add order. It holds at most
// one item per ID and every quantity is positive.
type Cart struct {
	Items []LineItem
}

// DecodeError reports a stored cart that could not be deserialised.
type DecodeError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("cart: decode %q: %v", e.Key, e.Err)
}

// Unwrap exposes the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// StorageKey derives the per-session slot key under StorageKeyBase.
func StorageKey(session string) string {
	return KeyFor(StorageKeyBase, session)
}

// KeyFor derives the per-session slot key under a custom base.
func KeyFor(base, session string) string {
	if base == "" {
		base = StorageKeyBase
	}
	if session == "" {
		return base
	}
	return base + ":" + session
}

// Total sums the parsed unit price times quantity across items.
func (c Cart) Total() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += price.Parse(item.Price) * float64(item.Quantity)
	}
	return sum
}

// Count sums quantities across items.
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Empty reports whether the cart has no items.
func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Find returns the item with the given id.
func (c Cart) Find(id string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

func (c Cart) clone() Cart {
	if len(c.Items) == 0 {
		return Cart{}
	}
	return Cart{Items: append([]LineItem(nil), c.Items...)}
}

// normalize drops items without an id or with a non-positive quantity and
// folds repeated ids into their first occurrence.
func normalize(c Cart) Cart {
	if len(c.Items) == 0 {
		return Cart{}
	}
	out := make([]LineItem, 0, len(c.Items))
	index := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, item.Quantity)
			continue
		}
		item.Quantity = clampQuantity(item.Quantity)
		index[item.ID] = len(out)
		out = append(out, item)
	}
	if len(out) == 0 {
		return Cart{}
	}
	return Cart{Items: out}
}

func clampQuantity(q int) int {
	return min(q, MaxQuantity)
}

// addQuantity adds delta to q, saturating at MaxQuantity. Operands are
// bounded first so the sum cannot overflow.
func addQuantity(q, delta int) int {
	q = clampQuantity(q)
	delta = max(min(delta, MaxQuantity), -MaxQuantity)
	return clampQuantity(q + delta)
}

// Encode serialises the cart as a JSON array of line items.
func Encode(c Cart) ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// Decode parses a stored cart and normalises it. An empty payload is an empty cart.
func Decode(data []byte) (Cart, error) {
	if len(data) == 0 {
		return Cart{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}, err
	}
	return normalize(Cart{Items: items}), nil
}
