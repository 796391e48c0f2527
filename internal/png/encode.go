package png

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

// maxChunkLength bounds the payload of a single emitted IDAT chunk.
const maxChunkLength = 0xFFFFFFFF

// maxPaletteLength is the largest color count addressable by a
// one-byte palette index.
const maxPaletteLength = 256

// Encode serializes an image back into a standard PNG datastream.
// Every scanline is emitted with the None filter; the output is
// larger than an adaptive encoder would produce, but reconstruction
// is byte-exact either way.
//
// All validations run before any output byte is produced. For
// indexed images, a palette is built in first-occurrence order when
// im.Palette is nil; a pre-supplied palette must already contain
// every pixel color.
func Encode(im *Image) ([]byte, error) {
	hdr := im.Header
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	if _, err := hdr.pixelSize(); err != nil {
		return nil, err
	}
	if im.Pixels == nil || len(im.Pixels.Pix) != int(hdr.Width)*int(hdr.Height) {
		got := 0
		if im.Pixels != nil {
			got = len(im.Pixels.Pix)
		}
		return nil, fmt.Errorf("%w: %d pixels for %dx%d image",
			ErrDimensionMismatch, got, hdr.Width, hdr.Height)
	}

	pal := im.Palette
	if hdr.ColorType == Indexed && pal == nil {
		var err error
		if pal, err = buildPalette(im.Pixels.Pix); err != nil {
			return nil, err
		}
	}

	raw, err := serialize(im.Pixels, hdr, pal)
	if err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("png: deflating sample data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("png: deflating sample data: %w", err)
	}

	out := cursor.NewWriter()
	out.WriteBytes(Signature[:])

	if err := writeChunk(out, chunkIHDR, hdr.marshal()); err != nil {
		return nil, err
	}
	if hdr.ColorType == Indexed {
		if err := writeChunk(out, chunkPLTE, pal.marshal()); err != nil {
			return nil, err
		}
	}
	for data := compressed.Bytes(); len(data) > 0; {
		n := min(len(data), maxChunkLength)
		if err := writeChunk(out, chunkIDAT, data[:n]); err != nil {
			return nil, err
		}
		data = data[n:]
	}
	if err := writeChunk(out, chunkIEND, nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// serialize lays out all scanlines, each prefixed with the None
// filter tag.
func serialize(im *pixel.Image, hdr Header, pal Palette) ([]byte, error) {
	bpp, _ := hdr.pixelSize()
	rowSize := 1 + bpp*int(hdr.Width)

	raw := make([]byte, rowSize*int(hdr.Height))
	for y := 0; y < int(hdr.Height); y++ {
		line := raw[y*rowSize : (y+1)*rowSize]
		line[0] = ftNone
		px := im.Pix[y*im.Width : (y+1)*im.Width]
		if err := encodeRow(px, hdr, pal, line[1:]); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// buildPalette deduplicates pixel colors in first-occurrence order.
func buildPalette(px []pixel.Pixel) (Palette, error) {
	var pal Palette
	seen := make(map[[3]uint8]struct{})
	for _, p := range px {
		key := [3]uint8{p.R, p.G, p.B}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pal = append(pal, pixel.Opaque(p.R, p.G, p.B))
	}
	if len(pal) > maxPaletteLength {
		return nil, fmt.Errorf("%w: %d distinct colors exceed palette capacity",
			ErrInvalidPaletteLength, len(pal))
	}
	return pal, nil
}
