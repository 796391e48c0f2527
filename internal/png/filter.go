package png

import "fmt"

// Filter type, as per the PNG spec.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
)

// unfilterRow reverses one scanline filter in place. cur holds the
// filtered bytes of the current row (without the tag byte) and is
// rewritten with the reconstructed bytes; prev holds the already
// reconstructed bytes of the previous row, or nil for the first row.
//
// Left-neighbor references read the partially reconstructed output,
// which is what makes rows strictly sequential.
func unfilterRow(ft uint8, cur, prev []byte, bpp int) error {
	switch ft {
	case ftNone:
	case ftSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case ftUp:
		if prev != nil {
			for i := range cur {
				cur[i] += prev[i]
			}
		}
	case ftAverage:
		for i := range cur {
			var left, above int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			if prev != nil {
				above = int(prev[i])
			}
			cur[i] += uint8((left + above) / 2)
		}
	case ftPaeth:
		for i := range cur {
			var left, above, upperLeft uint8
			if i >= bpp {
				left = cur[i-bpp]
			}
			if prev != nil {
				above = prev[i]
				if i >= bpp {
					upperLeft = prev[i-bpp]
				}
			}
			cur[i] += paeth(left, above, upperLeft)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFilterType, ft)
	}
	return nil
}

// filterRow applies one scanline filter. src is the raw row, prev the
// raw previous row (nil for the first row); the filtered bytes are
// written to dst. Forward filtering reads only raw input, so dst must
// not alias src.
func filterRow(ft uint8, dst, src, prev []byte, bpp int) error {
	switch ft {
	case ftNone:
		copy(dst, src)
	case ftSub:
		for i := range src {
			var left uint8
			if i >= bpp {
				left = src[i-bpp]
			}
			dst[i] = src[i] - left
		}
	case ftUp:
		for i := range src {
			var above uint8
			if prev != nil {
				above = prev[i]
			}
			dst[i] = src[i] - above
		}
	case ftAverage:
		for i := range src {
			var left, above int
			if i >= bpp {
				left = int(src[i-bpp])
			}
			if prev != nil {
				above = int(prev[i])
			}
			dst[i] = src[i] - uint8((left+above)/2)
		}
	case ftPaeth:
		for i := range src {
			var left, above, upperLeft uint8
			if i >= bpp {
				left = src[i-bpp]
			}
			if prev != nil {
				above = prev[i]
				if i >= bpp {
					upperLeft = prev[i-bpp]
				}
			}
			dst[i] = src[i] - paeth(left, above, upperLeft)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFilterType, ft)
	}
	return nil
}

// paeth predicts a byte from its left, above and upper-left
// neighbors. Ties favor left, then above, then upper-left.
func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
