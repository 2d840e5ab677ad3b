package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/grooveyard/lpmarket/internal/model"
)

// imagePathPrefix is the backend route that serves uploaded cover images.
const imagePathPrefix = "/products/images/"

// placeholderImage is served for listings without an uploaded cover.
const placeholderImage = "placeholder.jpg"

// SaleTime is a custom time type that handles the backend's sale-start
// timestamp formats.
type SaleTime struct {
	time.Time
}

// UnmarshalJSON parses the backend's timestamp. Listings created through
// this client send a zoneless seconds-precision form ("2026-03-01T20:00:00"),
// which is interpreted as local time; RFC 3339 variants are accepted too.
func (st *SaleTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		st.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		st.Time = time.Time{}
		return nil
	}

	// Zoneless formats first: these carry local wall-clock time.
	local := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, format := range local {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			st.Time = t
			return nil
		}
	}

	zoned := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z07:00",
	}
	for _, format := range zoned {
		if t, err := time.Parse(format, s); err == nil {
			st.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse sale start time: %s", s)
}

// RawProduct is a product record exactly as the backend serializes it.
type RawProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ArtistName    string    `json:"artistName"`
	Year          int       `json:"year"`
	Condition     string    `json:"condition"`
	Price         int64     `json:"price"`
	Stock         *int      `json:"stock"`
	IsLimited     bool      `json:"isLimited"`
	SaleStartAt   *SaleTime `json:"saleStartAt"`
	ThumbnailPath string    `json:"thumbnailPath"`
}

// ToProduct normalizes a raw record into a model.Product.
//
// The server-relative thumbnail path is fully qualified against mediaBase;
// an absent path maps to the placeholder image. An absent or zero sale
// start time stays absent so the model can tell "opens later" apart from
// "on sale now".
func (rp *RawProduct) ToProduct(mediaBase string) model.Product {
	p := model.Product{
		ID:           rp.ID,
		Name:         rp.Name,
		ArtistName:   rp.ArtistName,
		Year:         rp.Year,
		Condition:    rp.Condition,
		Price:        rp.Price,
		Stock:        rp.Stock,
		IsLimited:    rp.IsLimited,
		ThumbnailURL: QualifyThumbnail(mediaBase, rp.ThumbnailPath),
	}

	if rp.SaleStartAt != nil && !rp.SaleStartAt.IsZero() {
		t := rp.SaleStartAt.Time
		p.SaleStartAt = &t
	}

	return p
}

// QualifyThumbnail rewrites a server-relative thumbnail path into an
// absolute URL under mediaBase. Already-absolute URLs pass through, and
// an empty path resolves to the placeholder image.
func QualifyThumbnail(mediaBase, path string) string {
	if path == "" {
		path = placeholderImage
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	base := strings.TrimSuffix(mediaBase, "/")
	if strings.HasPrefix(path, imagePathPrefix) {
		return base + path
	}
	return base + imagePathPrefix + strings.TrimPrefix(path, "/")
}
