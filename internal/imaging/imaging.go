// Package imaging normalizes listing photos before upload.
//
// The backend accepts JPG/PNG covers up to 10 MB. Service decodes
// whatever the seller provides, bounds it to a maximum dimension, and
// re-encodes it as JPEG so every listing uploads a predictable format.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// MaxUploadBytes is the backend's limit on listing images.
const MaxUploadBytes = 10 << 20

// Service prepares listing cover images for upload.
type Service struct{}

// NewService creates a new imaging Service.
func NewService() *Service {
	return &Service{}
}

// Normalize decodes an image, scales it down to fit within maxDim on
// both axes while preserving aspect ratio, and re-encodes it as JPEG.
// Images already within bounds are only re-encoded.
//
// Returns an error if the data is not a decodable image or if the result
// still exceeds MaxUploadBytes.
func (s *Service) Normalize(data []byte, maxDim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a usable image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxDim || height > maxDim {
		if width >= height {
			height = height * maxDim / width
			width = maxDim
		} else {
			width = width * maxDim / height
			height = maxDim
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	if buf.Len() > MaxUploadBytes {
		return nil, fmt.Errorf("image is %d bytes after normalization, limit is %d", buf.Len(), MaxUploadBytes)
	}

	return buf.Bytes(), nil
}
