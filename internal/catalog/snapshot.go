package catalog

import "sync/atomic"

// Snapshot holds the process-wide catalog. It is written once after loading
// and read by search and rendering on every request.
type Snapshot struct {
	current atomic.Pointer[Catalog]
}

// NewSnapshot returns a snapshot holding the given catalog.
func NewSnapshot(c Catalog) *Snapshot {
	s := &Snapshot{}
	s.Store(c)
	return s
}

// Store replaces the held catalog with a private copy of c.
func (s *Snapshot) Store(c Catalog) {
	cp := c.clone()
	s.current.Store(&cp)
}

// Catalog returns the held catalog, or an empty one before the first Store.
// The returned slices are shared and must be treated as read-only.
func (s *Snapshot) Catalog() Catalog {
	if s == nil {
		return Catalog{}
	}
	if c := s.current.Load(); c != nil {
		return *c
	}
	return Catalog{}
}

// Products returns the held products in catalog order. Read-only.
func (s *Snapshot) Products() []Product {
	return s.Catalog().Products
}
