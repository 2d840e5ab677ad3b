package model

import "time"

// Product is a vinyl record listing as the client displays it.
//
// Products come from the backend in a raw wire shape and are normalized
// into this type by the api/dto package: server-relative thumbnail paths
// are rewritten into absolute URLs and timestamps are parsed into
// comparable time values. Everything except Stock is immutable from the
// client's point of view, and even Stock is only ever replaced by a full
// catalog re-fetch, never decremented locally.
//
// Optional fields use pointers so that "absent" stays distinguishable
// from a zero value:
//   - Stock == nil means the backend sent no stock count; it is treated
//     exactly like a stock of 0 (sold out).
//   - SaleStartAt == nil means the record is on sale immediately.
type Product struct {
	// ID is the backend's stable, opaque identifier.
	ID string

	// Name is the album title.
	Name string

	// ArtistName is the performing artist.
	ArtistName string

	// Year is the original release year.
	Year int

	// Condition is the record grading (NM, VG+, ...). Limited pressings
	// are always sold as NEW.
	Condition string

	// Price is the asking price in whole currency units (KRW).
	Price int64

	// Stock is the remaining unit count, if the backend reported one.
	Stock *int

	// SaleStartAt is the scheduled sale opening time for limited
	// pressings. Nil means the sale is already open.
	SaleStartAt *time.Time

	// IsLimited marks a time-gated limited pressing. It decides which
	// display group the product lands in.
	IsLimited bool

	// ThumbnailURL is the fully qualified cover image URL. Never empty:
	// records without an uploaded image get a placeholder URL.
	ThumbnailURL string
}

// InStock reports whether the product has at least one unit left.
// A missing stock count is treated as sold out.
func (p *Product) InStock() bool {
	return p.Stock != nil && *p.Stock > 0
}
