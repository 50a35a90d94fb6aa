package imaging

const ditherThreshold = 128

// DitherFloydSteinberg thresholds pix (w×h, 8-bit, raster order) to 0 or 255 in place,
// diffusing each pixel's quantization error to its unvisited neighbours:
//
//	        *     7/16
//	3/16  5/16   1/16
//
// Neighbours outside the image are skipped. Accumulated values are not clamped, so
// errors carry through saturated regions. The result is fully deterministic.
func DitherFloydSteinberg(pix []byte, w, h int) {
	if w <= 0 || h <= 0 || len(pix) < w*h {
		return
	}

	work := make([]float64, w*h)
	for i := range work {
		work[i] = float64(pix[i])
	}

	for y := range h {
		for x := range w {
			i := y*w + x
			old := work[i]

			var quant float64
			if old >= ditherThreshold {
				quant = 255
			}
			work[i] = quant
			e := old - quant

			if x+1 < w {
				work[i+1] += e * 7 / 16
			}
			if y+1 < h {
				if x > 0 {
					work[i+w-1] += e * 3 / 16
				}
				work[i+w] += e * 5 / 16
				if x+1 < w {
					work[i+w+1] += e * 1 / 16
				}
			}
		}
	}

	for i, v := range work {
		pix[i] = uint8(v)
	}
}
