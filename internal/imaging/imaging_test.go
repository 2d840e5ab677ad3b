package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestService_Normalize_ScalesDown(t *testing.T) {
	svc := NewService()

	out, err := svc.Normalize(encodePNG(t, 2000, 1000), 1000)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 1000 || b.Dy() != 500 {
		t.Errorf("bounds = %dx%d, want 1000x500", b.Dx(), b.Dy())
	}
}

func TestService_Normalize_KeepsSmallImages(t *testing.T) {
	svc := NewService()

	out, err := svc.Normalize(encodePNG(t, 300, 200), 1000)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 300 || b.Dy() != 200 {
		t.Errorf("bounds = %dx%d, want 300x200 unchanged", b.Dx(), b.Dy())
	}
}

func TestService_Normalize_PortraitAspect(t *testing.T) {
	svc := NewService()

	out, err := svc.Normalize(encodePNG(t, 500, 2000), 1000)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	img, _ := jpeg.Decode(bytes.NewReader(out))
	b := img.Bounds()
	if b.Dx() != 250 || b.Dy() != 1000 {
		t.Errorf("bounds = %dx%d, want 250x1000", b.Dx(), b.Dy())
	}
}

func TestService_Normalize_RejectsGarbage(t *testing.T) {
	svc := NewService()

	if _, err := svc.Normalize([]byte("not an image"), 1000); err == nil {
		t.Error("expected error for undecodable data")
	}
}
