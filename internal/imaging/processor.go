package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/egecelikci/favorites/internal/shared"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultSize   = 290
	DefaultColors = 16

	// maxSourcePixels rejects decompression bombs before a full decode.
	maxSourcePixels = 64 << 20
)

// Variant selects which derived outputs [Processor.Derive] produces.
type Variant uint8

const (
	VariantMono Variant = 1 << iota
	VariantColor

	VariantBoth = VariantMono | VariantColor
)

// Has reports whether v includes o.
func (v Variant) Has(o Variant) bool {
	return v&o != 0
}

var discard = log.New(io.Discard)

// monoPalette is "ink on nothing": index 0 is fully transparent, index 1 opaque black.
var monoPalette = color.Palette{
	color.NRGBA{0, 0, 0, 0},
	color.NRGBA{0, 0, 0, 255},
}

// Processor converts raw cover buffers into mono and color PNG variants.
type Processor struct {
	Size   int // Edge of the square output in pixels
	Colors int // Palette size of the color variant
	Logger *log.Logger
}

// NewProcessor creates a Processor with the default 290px footprint and 16-color palette.
func NewProcessor(logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Processor{
		Size:   DefaultSize,
		Colors: DefaultColors,
		Logger: shared.WithLogger(logger, "component", "imaging"),
	}
}

// Mono writes the dithered monochrome variant of src to outPath.
func (p *Processor) Mono(src []byte, outPath string) error {
	return p.Derive(src, outPath, "", VariantMono)
}

// Color writes the reduced-palette variant of src to outPath.
func (p *Processor) Color(src []byte, outPath string) error {
	return p.Derive(src, "", outPath, VariantColor)
}

// Derive decodes src once and writes each requested variant.
//
// The variants are independent: a failure in one does not prevent the other.
// Every failure wraps [shared.ErrImageProcessing] and leaves its output absent.
func (p *Processor) Derive(src []byte, monoPath, colorPath string, want Variant) error {
	img, err := p.decode(src)
	if err != nil {
		p.logger().Error("failed to decode source image", "err", err)
		return err
	}

	var errs []error
	if want.Has(VariantMono) {
		if err := p.writePNG(monoPath, p.mono(img)); err != nil {
			p.logger().Error("mono derivation failed", "path", monoPath, "err", err)
			errs = append(errs, err)
		}
	}
	if want.Has(VariantColor) {
		if err := p.writePNG(colorPath, p.color(img)); err != nil {
			p.logger().Error("color derivation failed", "path", colorPath, "err", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// DeriveFile is [Processor.Derive] for a source image on disk.
func (p *Processor) DeriveFile(srcPath, monoPath, colorPath string, want Variant) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrImageProcessing, err)
	}
	return p.Derive(src, monoPath, colorPath, want)
}

// decode decodes src and crops it to the square footprint.
func (p *Processor) decode(src []byte) (*image.NRGBA, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty source image", shared.ErrImageProcessing)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", shared.ErrImageProcessing, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", shared.ErrImageProcessing, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", shared.ErrImageProcessing, err)
	}

	return CropToFill(img, p.size()), nil
}

func (p *Processor) mono(img *image.NRGBA) *image.Paletted {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := Greyscale(img)
	DitherFloydSteinberg(pix, w, h)

	out := image.NewPaletted(image.Rect(0, 0, w, h), monoPalette)
	for i, v := range pix {
		if v == 0 {
			out.Pix[i] = 1
		}
	}
	return out
}

func (p *Processor) color(img *image.NRGBA) *image.Paletted {
	palette := MedianCut(img, p.colors())
	out := image.NewPaletted(img.Bounds(), palette)
	draw.FloydSteinberg.Draw(out, out.Bounds(), img, img.Bounds().Min)
	return out
}

func (p *Processor) writePNG(path string, img image.Image) error {
	if path == "" {
		return fmt.Errorf("%w: missing output path", shared.ErrImageProcessing)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("%w: encode: %v", shared.ErrImageProcessing, err)
	}

	if err := shared.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrImageProcessing, err)
	}
	return nil
}

func (p *Processor) size() int {
	if p.Size <= 0 {
		return DefaultSize
	}
	return p.Size
}

func (p *Processor) colors() int {
	if p.Colors <= 1 {
		return DefaultColors
	}
	return p.Colors
}

func (p *Processor) logger() *log.Logger {
	if p.Logger == nil {
		return discard
	}
	return p.Logger
}

// CropToFill scales the centered square of img to size×size with Catmull-Rom resampling.
func CropToFill(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// Greyscale returns the 8-bit luma of img in raster order, using the ITU-R 601 weights of [color.GrayModel].
func Greyscale(img *image.NRGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h)

	for y := range h {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for x := range w {
			r, g, bl := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2])
			out[y*w+x] = uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
		}
	}
	return out
}
