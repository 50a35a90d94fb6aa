package imaging

import (
	"image"
	"image/color"
	"sort"
)

type colorCount struct {
	rgb   [3]uint8
	count int
}

type colorBox struct {
	colors []colorCount
}

// channelRange returns the channel with the widest spread in the box and that spread.
func (b colorBox) channelRange() (int, int) {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{}
	for _, c := range b.colors {
		for ch := range 3 {
			lo[ch] = min(lo[ch], c.rgb[ch])
			hi[ch] = max(hi[ch], c.rgb[ch])
		}
	}

	best, spread := 0, -1
	for ch := range 3 {
		if s := int(hi[ch]) - int(lo[ch]); s > spread {
			best, spread = ch, s
		}
	}
	return best, spread
}

func (b colorBox) average() color.NRGBA {
	var sum [3]int
	total := 0
	for _, c := range b.colors {
		for ch := range 3 {
			sum[ch] += int(c.rgb[ch]) * c.count
		}
		total += c.count
	}
	if total == 0 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{
		R: uint8((sum[0] + total/2) / total),
		G: uint8((sum[1] + total/2) / total),
		B: uint8((sum[2] + total/2) / total),
		A: 255,
	}
}

// split divides the box at the population median of its widest channel.
func (b colorBox) split() (colorBox, colorBox) {
	ch, _ := b.channelRange()
	sort.SliceStable(b.colors, func(i, j int) bool {
		return b.colors[i].rgb[ch] < b.colors[j].rgb[ch]
	})

	total := 0
	for _, c := range b.colors {
		total += c.count
	}

	acc, cut := 0, 1
	for i, c := range b.colors[:len(b.colors)-1] {
		acc += c.count
		cut = i + 1
		if acc*2 >= total {
			break
		}
	}

	return colorBox{colors: b.colors[:cut]}, colorBox{colors: b.colors[cut:]}
}

// MedianCut builds an opaque palette of at most n colors from the pixels of img.
//
// The result depends only on the pixel data: the histogram is walked in color order and
// every split uses a stable sort, so equal inputs always yield the same palette.
func MedianCut(img *image.NRGBA, n int) color.Palette {
	hist := make(map[uint32]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			hist[uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B)]++
		}
	}

	keys := make([]uint32, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	colors := make([]colorCount, len(keys))
	for i, k := range keys {
		colors[i] = colorCount{rgb: [3]uint8{uint8(k >> 16), uint8(k >> 8), uint8(k)}, count: hist[k]}
	}

	boxes := []colorBox{{colors: colors}}
	for len(boxes) < n {
		idx, spread := -1, 0
		for i, box := range boxes {
			if len(box.colors) < 2 {
				continue
			}
			if _, s := box.channelRange(); s > spread {
				idx, spread = i, s
			}
		}
		if idx < 0 {
			break
		}

		left, right := boxes[idx].split()
		boxes[idx] = left
		boxes = append(boxes, right)
	}

	palette := make(color.Palette, 0, len(boxes))
	for _, box := range boxes {
		palette = append(palette, box.average())
	}
	if len(palette) == 0 {
		palette = append(palette, color.NRGBA{A: 255})
	}
	return palette
}
