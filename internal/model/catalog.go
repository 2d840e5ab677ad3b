package model

import "time"

// Catalog is one fetched snapshot of the marketplace, partitioned into
// regular and limited-edition listings. Each product appears in exactly
// one group, keyed by IsLimited. The catalog is rebuilt wholesale on
// every fetch; there is no incremental update.
type Catalog struct {
	Regular   []Product
	Limited   []Product
	FetchedAt time.Time
}

// Partition splits products into regular and limited groups.
func Partition(products []Product, fetchedAt time.Time) Catalog {
	c := Catalog{FetchedAt: fetchedAt}
	for _, p := range products {
		if p.IsLimited {
			c.Limited = append(c.Limited, p)
		} else {
			c.Regular = append(c.Regular, p)
		}
	}
	return c
}

// IsLimited reports whether the product id belongs to the limited group
// of this snapshot. The purchase dispatcher routes on this membership, so
// it reflects the last fetch, not any flag re-sent by the backend.
func (c Catalog) IsLimited(id string) bool {
	for i := range c.Limited {
		if c.Limited[i].ID == id {
			return true
		}
	}
	return false
}

// Find returns the product with the given id from either group.
func (c Catalog) Find(id string) (*Product, bool) {
	for i := range c.Limited {
		if c.Limited[i].ID == id {
			return &c.Limited[i], true
		}
	}
	for i := range c.Regular {
		if c.Regular[i].ID == id {
			return &c.Regular[i], true
		}
	}
	return nil, false
}

// Len returns the total number of products across both groups.
func (c Catalog) Len() int {
	return len(c.Regular) + len(c.Limited)
}
