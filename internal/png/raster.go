package png

import (
	"fmt"

	"github.com/ctrsuite/ctrimage/internal/pixel"
)

// Palette is the ordered color table decoded from a PLTE chunk.
type Palette []pixel.Pixel

func parsePalette(data []byte) (Palette, error) {
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPaletteLength, len(data))
	}
	pal := make(Palette, len(data)/3)
	for i := range pal {
		pal[i] = pixel.Opaque(data[i*3], data[i*3+1], data[i*3+2])
	}
	return pal, nil
}

func (p Palette) marshal() []byte {
	data := make([]byte, 0, len(p)*3)
	for _, e := range p {
		data = append(data, e.R, e.G, e.B)
	}
	return data
}

// indexOf returns the palette index holding the exact (r,g,b) triple.
func (p Palette) indexOf(px pixel.Pixel) (int, bool) {
	for i, e := range p {
		if e.R == px.R && e.G == px.G && e.B == px.B {
			return i, true
		}
	}
	return -1, false
}

// readSample reads one sample off a reconstructed row. 16-bit samples
// are big-endian and reduced to their high byte, which is exact for
// values of the form v<<8|v.
func readSample(row []byte, i, sampleSize int) uint8 {
	return row[i*sampleSize]
}

func writeSample(row []byte, i, sampleSize int, v uint8) {
	row[i*sampleSize] = v
	if sampleSize == 2 {
		row[i*sampleSize+1] = v
	}
}

// decodeRow deserializes one reconstructed scanline into pixels.
func decodeRow(row []byte, hdr Header, pal Palette, out []pixel.Pixel) {
	ss := int(hdr.BitDepth) / 8
	ch := hdr.ColorType.Channels()

	for x := 0; x < int(hdr.Width); x++ {
		base := x * ch
		switch hdr.ColorType {
		case Grayscale:
			v := readSample(row, base, ss)
			out[x] = pixel.Opaque(v, v, v)
		case TrueColor:
			out[x] = pixel.Opaque(
				readSample(row, base, ss),
				readSample(row, base+1, ss),
				readSample(row, base+2, ss),
			)
		case Indexed:
			// an out-of-range index yields the zero pixel rather
			// than an error; see the palette note in DESIGN.md
			idx := int(readSample(row, base, ss))
			if idx < len(pal) {
				out[x] = pal[idx]
			} else {
				out[x] = pixel.Pixel{}
			}
		case GrayscaleAlpha:
			v := readSample(row, base, ss)
			a := readSample(row, base+1, ss)
			out[x] = pixel.Pixel{R: v, G: v, B: v, A: a}
		case TrueColorAlpha:
			out[x] = pixel.Pixel{
				R: readSample(row, base, ss),
				G: readSample(row, base+1, ss),
				B: readSample(row, base+2, ss),
				A: readSample(row, base+3, ss),
			}
		}
	}
}

// encodeRow serializes one row of pixels into scanline samples, the
// inverse of decodeRow. For indexed images every pixel must resolve
// to a palette entry.
func encodeRow(px []pixel.Pixel, hdr Header, pal Palette, row []byte) error {
	ss := int(hdr.BitDepth) / 8
	ch := hdr.ColorType.Channels()

	for x := 0; x < int(hdr.Width); x++ {
		p := px[x]
		base := x * ch
		switch hdr.ColorType {
		case Grayscale:
			writeSample(row, base, ss, p.R)
		case TrueColor:
			writeSample(row, base, ss, p.R)
			writeSample(row, base+1, ss, p.G)
			writeSample(row, base+2, ss, p.B)
		case Indexed:
			idx, ok := pal.indexOf(p)
			if !ok {
				return fmt.Errorf("%w: rgb(%d, %d, %d)", ErrColorNotInPalette, p.R, p.G, p.B)
			}
			writeSample(row, base, ss, uint8(idx))
		case GrayscaleAlpha:
			writeSample(row, base, ss, p.R)
			writeSample(row, base+1, ss, p.A)
		case TrueColorAlpha:
			writeSample(row, base, ss, p.R)
			writeSample(row, base+1, ss, p.G)
			writeSample(row, base+2, ss, p.B)
			writeSample(row, base+3, ss, p.A)
		}
	}
	return nil
}
