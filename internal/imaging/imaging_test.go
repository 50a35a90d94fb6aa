package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/egecelikci/favorites/internal/shared"
	tu "github.com/egecelikci/favorites/internal/testing"
)

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return img
}

func TestDitherFloydSteinberg(t *testing.T) {
	t.Run("Thresholds Solid Regions", func(t *testing.T) {
		tests := []struct {
			name  string
			value byte
			want  byte
		}{
			{"black", 0, 0},
			{"white", 255, 255},
			{"threshold", 128, 255},
			{"just below threshold", 127, 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				pix := []byte{tt.value}
				DitherFloydSteinberg(pix, 1, 1)
				if pix[0] != tt.want {
					t.Errorf("expected %d, got %d", tt.want, pix[0])
				}
			})
		}
	})

	t.Run("Diffuses Error Right", func(t *testing.T) {
		// 100 -> 0 leaves error 100; right neighbour gets 100*7/16 = 43.75 and crosses 128.
		pix := []byte{100, 90}
		DitherFloydSteinberg(pix, 2, 1)
		if pix[0] != 0 || pix[1] != 255 {
			t.Errorf("expected [0 255], got %v", pix)
		}
	})

	t.Run("Diffuses Error Below", func(t *testing.T) {
		// 2x2: the 200 at (0,0) quantizes to 255 with error -55.
		// (1,0): 120 - 55*7/16 = 95.94 -> 0, error 95.94
		// (0,1): 120 - 55*5/16 + 95.94*3/16 = 120 - 17.19 + 17.99 = 120.8 -> 0
		pix := []byte{200, 120, 120, 120}
		DitherFloydSteinberg(pix, 2, 2)
		want := []byte{255, 0, 0, 255}
		if !bytes.Equal(pix, want) {
			t.Errorf("expected %v, got %v", want, pix)
		}
	})

	t.Run("Mid Grey Is Half Ink", func(t *testing.T) {
		const w, h = 64, 64
		pix := bytes.Repeat([]byte{128}, w*h)
		DitherFloydSteinberg(pix, w, h)

		black := 0
		for _, v := range pix {
			if v != 0 && v != 255 {
				t.Fatalf("expected only 0 or 255, got %d", v)
			}
			if v == 0 {
				black++
			}
		}
		if ratio := float64(black) / float64(w*h); ratio < 0.45 || ratio > 0.55 {
			t.Errorf("expected roughly half black pixels, got %.2f", ratio)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		src := Greyscale(tu.GradientImage(DefaultSize, DefaultSize))
		a := append([]byte(nil), src...)
		b := append([]byte(nil), src...)
		DitherFloydSteinberg(a, DefaultSize, DefaultSize)
		DitherFloydSteinberg(b, DefaultSize, DefaultSize)
		if !bytes.Equal(a, b) {
			t.Error("expected identical dither output")
		}
	})

	t.Run("Short Buffer Is Ignored", func(t *testing.T) {
		pix := []byte{10, 20}
		DitherFloydSteinberg(pix, 4, 4)
		if pix[0] != 10 || pix[1] != 20 {
			t.Error("expected buffer to be untouched")
		}
	})
}

func TestCropToFill(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 600, 300},
		{"portrait", 200, 500},
		{"square", 290, 290},
		{"upscale", 50, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CropToFill(tu.GradientImage(tt.w, tt.h), DefaultSize)
			if got := out.Bounds(); got.Dx() != DefaultSize || got.Dy() != DefaultSize {
				t.Errorf("expected %dx%d, got %dx%d", DefaultSize, DefaultSize, got.Dx(), got.Dy())
			}
		})
	}

	t.Run("Keeps Center", func(t *testing.T) {
		// Red bars on the left and right thirds are cropped away.
		src := tu.UniformImage(300, 100, color.NRGBA{0, 0, 255, 255})
		for y := range 100 {
			for x := range 100 {
				src.Set(x, y, color.NRGBA{255, 0, 0, 255})
				src.Set(x+200, y, color.NRGBA{255, 0, 0, 255})
			}
		}

		out := CropToFill(src, 10)
		c := out.NRGBAAt(5, 5)
		if c.B < 200 || c.R > 50 {
			t.Errorf("expected center to stay blue, got %v", c)
		}
	})
}

func TestMedianCut(t *testing.T) {
	t.Run("Bounded Palette", func(t *testing.T) {
		palette := MedianCut(CropToFill(tu.GradientImage(400, 300), DefaultSize), DefaultColors)
		if len(palette) != DefaultColors {
			t.Errorf("expected %d colors, got %d", DefaultColors, len(palette))
		}
		for _, c := range palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				t.Errorf("expected opaque palette entry, got %v", c)
			}
		}
	})

	t.Run("Fewer Distinct Colors", func(t *testing.T) {
		img := tu.UniformImage(8, 8, color.NRGBA{10, 20, 30, 255})
		for x := range 8 {
			img.Set(x, 0, color.NRGBA{200, 100, 50, 255})
		}

		palette := MedianCut(img, 16)
		if len(palette) != 2 {
			t.Fatalf("expected 2 colors, got %d", len(palette))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		img := CropToFill(tu.GradientImage(320, 320), DefaultSize)
		a := MedianCut(img, 16)
		b := MedianCut(img, 16)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("palette entry %d differs: %v vs %v", i, a[i], b[i])
			}
		}
	})
}

func TestProcessor(t *testing.T) {
	src := tu.MustEncodePNG(t, tu.GradientImage(480, 360))

	t.Run("Mono", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "covers", "monochrome", "a.png")
		p := NewProcessor(nil)

		if err := p.Mono(src, out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		img := decodePNG(t, out)
		pal, ok := img.(*image.Paletted)
		if !ok {
			t.Fatalf("expected paletted PNG, got %T", img)
		}
		if b := pal.Bounds(); b.Dx() != DefaultSize || b.Dy() != DefaultSize {
			t.Errorf("expected %dx%d, got %v", DefaultSize, DefaultSize, b)
		}
		if len(pal.Palette) != 2 {
			t.Fatalf("expected 2-color palette, got %d", len(pal.Palette))
		}
		if _, _, _, a := pal.Palette[0].RGBA(); a != 0 {
			t.Error("expected palette index 0 to be transparent")
		}
		if r, g, b, a := pal.Palette[1].RGBA(); r != 0 || g != 0 || b != 0 || a != 0xffff {
			t.Error("expected palette index 1 to be opaque black")
		}
	})

	t.Run("Mono Is Bit Identical Across Runs", func(t *testing.T) {
		dir := t.TempDir()
		p := NewProcessor(nil)
		a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")

		if err := p.Mono(src, a); err != nil {
			t.Fatal(err)
		}
		if err := p.Mono(src, b); err != nil {
			t.Fatal(err)
		}
		if tu.MustReadFile(t, a) != tu.MustReadFile(t, b) {
			t.Error("expected identical PNG bytes")
		}
	})

	t.Run("Color", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "colored", "a.png")
		p := NewProcessor(nil)

		if err := p.Color(src, out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pal, ok := decodePNG(t, out).(*image.Paletted)
		if !ok {
			t.Fatal("expected paletted PNG")
		}
		if b := pal.Bounds(); b.Dx() != DefaultSize || b.Dy() != DefaultSize {
			t.Errorf("expected %dx%d, got %v", DefaultSize, DefaultSize, b)
		}
		if len(pal.Palette) > DefaultColors {
			t.Errorf("expected at most %d colors, got %d", DefaultColors, len(pal.Palette))
		}
	})

	t.Run("Derive Only Requested Variants", func(t *testing.T) {
		dir := t.TempDir()
		mono, col := filepath.Join(dir, "m.png"), filepath.Join(dir, "c.png")

		if err := NewProcessor(nil).Derive(src, mono, col, VariantColor); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, col)
		tu.AssertFileMissing(t, mono)
	})

	t.Run("Corrupt Source Leaves Outputs Absent", func(t *testing.T) {
		dir := t.TempDir()
		mono, col := filepath.Join(dir, "m.png"), filepath.Join(dir, "c.png")

		err := NewProcessor(nil).Derive([]byte("not an image"), mono, col, VariantBoth)
		if !errors.Is(err, shared.ErrImageProcessing) {
			t.Errorf("expected ErrImageProcessing, got %v", err)
		}
		tu.AssertFileMissing(t, mono)
		tu.AssertFileMissing(t, col)
	})

	t.Run("Empty Source", func(t *testing.T) {
		err := NewProcessor(nil).Mono(nil, filepath.Join(t.TempDir(), "m.png"))
		if !errors.Is(err, shared.ErrImageProcessing) {
			t.Errorf("expected ErrImageProcessing, got %v", err)
		}
	})

	t.Run("DeriveFile", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "in.png")
		tu.MustWriteFile(t, in, src)
		col := filepath.Join(dir, "c.png")

		if err := NewProcessor(nil).DeriveFile(in, "", col, VariantColor); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, col)
	})
}
