// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessKeepsSmallImage(t *testing.T) {
	p := NewProcessor()

	res, err := p.Process(bytes.NewReader(pngImage(t, 800, 600)), "Zdjęcie z kursu.png")
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Width != 800 || res.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600 (no upscale/downscale)", res.Width, res.Height)
	}
	if res.MimeType != MimeTypePNG {
		t.Errorf("MimeType = %q, want %q", res.MimeType, MimeTypePNG)
	}
	if !strings.HasPrefix(res.ObjectName, "zdj-cie-z-kursu-") || !strings.HasSuffix(res.ObjectName, ".png") {
		t.Errorf("ObjectName = %q, want sanitized name with .png", res.ObjectName)
	}
}

func TestProcessDownscalesWideImage(t *testing.T) {
	p := NewProcessor()

	res, err := p.Process(bytes.NewReader(jpegImage(t, 3200, 1600)), "photo.jpg")
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Width != DefaultMaxWidth {
		t.Errorf("Width = %d, want %d", res.Width, DefaultMaxWidth)
	}
	if res.Height != 800 {
		t.Errorf("Height = %d, want 800 (aspect preserved)", res.Height)
	}
	if res.MimeType != MimeTypeJPEG {
		t.Errorf("MimeType = %q, want %q", res.MimeType, MimeTypeJPEG)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	p := NewProcessor()

	if _, err := p.Process(strings.NewReader("%PDF-1.4 not an image"), "doc.pdf"); err == nil {
		t.Error("Process() accepted non-image data")
	}
	if _, err := p.Process(strings.NewReader(""), "empty"); err == nil {
		t.Error("Process() accepted empty input")
	}
}

func TestApplyOrientation(t *testing.T) {
	// A 4x2 image must come out 2x4 for rotation orientations.
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))

	for _, o := range []int{5, 6, 7, 8} {
		out := applyOrientation(src, o)
		b := out.Bounds()
		if b.Dx() != 2 || b.Dy() != 4 {
			t.Errorf("orientation %d: got %dx%d, want 2x4", o, b.Dx(), b.Dy())
		}
	}
	for _, o := range []int{1, 2, 3, 4, 0, 9} {
		out := applyOrientation(src, o)
		b := out.Bounds()
		if b.Dx() != 4 || b.Dy() != 2 {
			t.Errorf("orientation %d: got %dx%d, want 4x2", o, b.Dx(), b.Dy())
		}
	}
}

func TestObjectNameFallback(t *testing.T) {
	name := objectName("żźć.png", "png")
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("objectName = %q, want .png suffix", name)
	}
	if strings.HasPrefix(name, "-") {
		t.Errorf("objectName = %q must not start with a dash", name)
	}

	jpg := objectName("IMG_1234.JPG", "jpeg")
	if !strings.HasPrefix(jpg, "img-1234-") || !strings.HasSuffix(jpg, ".jpg") {
		t.Errorf("objectName = %q, want img-1234-*.jpg", jpg)
	}
}
