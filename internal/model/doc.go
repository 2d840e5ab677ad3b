// Package model defines the core data structures of the lpmarket client.
//
// # Product
//
// Product is a normalized vinyl listing. The backend's raw records are
// converted into this shape by api/dto before anything else sees them:
//
//	status := p.StatusAt(time.Now())
//	if p.PurchasableAt(time.Now()) { /* offer the buy action */ }
//
// # Availability
//
// Availability and countdown rules are pure functions of a product and a
// sampled wall-clock time, so the UI can re-evaluate them every second
// without touching the product list:
//
//	if !model.Available(p.SaleStartAt, now) {
//	    c := model.Remaining(p.SaleStartAt, now)
//	    fmt.Printf("opens in %02d:%02d:%02d\n", c.Hours, c.Minutes, c.Seconds)
//	}
//
// # Catalog
//
// Catalog is one fetched snapshot partitioned into regular and limited
// groups. Order routing looks up membership in the limited group of the
// current snapshot.
package model
