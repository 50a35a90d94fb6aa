// Package imaging derives the two published cover variants from a raw cover buffer.
//
// Both variants share a square crop-to-fill footprint:
//   - mono: greyscale, Floyd–Steinberg dithered to ink on a transparent background
//   - color: median-cut palette, error-diffused with [draw.FloydSteinberg]
//
// Outputs are palette PNGs written atomically, so a failed derivation never leaves a partial file behind.
package imaging
