package model

import "time"

// Status is the tri-state purchase status of a product at a given instant.
type Status int

const (
	// StatusWaiting means the sale has not started yet.
	StatusWaiting Status = iota

	// StatusAvailable means the sale is open and stock remains.
	StatusAvailable

	// StatusSoldOut means no stock remains. Stock exhaustion is terminal,
	// so it applies even when the sale start time has not arrived.
	StatusSoldOut
)

// String returns a short lower-case name for the status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusAvailable:
		return "available"
	case StatusSoldOut:
		return "sold_out"
	default:
		return "unknown"
	}
}

// Countdown is a non-negative {hours, minutes, seconds} decomposition of
// the time left until a sale opens.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

// IsZero reports whether no time remains.
func (c Countdown) IsZero() bool {
	return c.Hours == 0 && c.Minutes == 0 && c.Seconds == 0
}

// Available reports whether a sale with the given start time is open at
// now. A nil start time means always open. The boundary is inclusive:
// saleStartAt exactly equal to now is open.
func Available(saleStartAt *time.Time, now time.Time) bool {
	return saleStartAt == nil || !now.Before(*saleStartAt)
}

// Remaining decomposes max(0, saleStartAt-now) into whole hours, minutes
// and seconds, truncated. Components are never negative; once the sale is
// open the result is the zero Countdown. A nil start time also yields the
// zero Countdown.
func Remaining(saleStartAt *time.Time, now time.Time) Countdown {
	if saleStartAt == nil {
		return Countdown{}
	}
	d := saleStartAt.Sub(now)
	if d <= 0 {
		return Countdown{}
	}
	secs := int(d / time.Second)
	return Countdown{
		Hours:   secs / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
}

// StatusAt derives the product's purchase status at now. Sold-out wins
// over waiting: a record with no stock shows as sold out even before its
// sale opens, since timing is moot once stock is exhausted.
//
// StatusAt is a pure projection. It is re-evaluated every second for
// limited products while they are on screen and must not mutate anything.
func (p *Product) StatusAt(now time.Time) Status {
	if !p.InStock() {
		return StatusSoldOut
	}
	if !Available(p.SaleStartAt, now) {
		return StatusWaiting
	}
	return StatusAvailable
}

// PurchasableAt reports whether a one-unit purchase may be attempted at
// now: the sale must be open and stock must remain.
func (p *Product) PurchasableAt(now time.Time) bool {
	return p.StatusAt(now) == StatusAvailable
}
