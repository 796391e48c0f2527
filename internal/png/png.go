// Package png implements a PNG decoder and encoder operating on
// in-memory buffers, supporting bit depths 8 and 16 for all five
// color types. Interlacing, sub-byte bit depths and non-default
// compression or filter methods are rejected by validation.
package png

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

// Signature is the fixed 8-byte magic every PNG datastream starts
// with: high-bit byte, "PNG", CR LF, DOS EOF, LF.
var Signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// Image is a fully decoded PNG: the validated header, the palette (if
// any) and the pixel raster.
type Image struct {
	Header  Header
	Palette Palette
	Pixels  *pixel.Image
}

// Decoding stage. The IHDR, PLTE (if present), IDAT and IEND chunks
// must appear in that order.
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeenIDAT
	dsSeenIEND
)

type decoder struct {
	cur   *cursor.Cursor
	stage int

	hdr  Header
	pal  Palette
	idat bytes.Buffer
}

// Decode parses a whole PNG datastream and reconstructs its pixels.
// Any structural violation fails the decode; no partial result is
// ever returned.
func Decode(data []byte) (*Image, error) {
	d := &decoder{cur: cursor.New(data)}

	if err := d.checkSignature(); err != nil {
		return nil, err
	}
	for d.stage != dsSeenIEND {
		if err := d.parseChunk(); err != nil {
			return nil, err
		}
	}
	// trailing bytes after IEND are discarded

	px, err := reconstruct(d.idat.Bytes(), d.hdr, d.pal)
	if err != nil {
		return nil, err
	}
	return &Image{Header: d.hdr, Palette: d.pal, Pixels: px}, nil
}

// checkSignature validates the five structural parts of the PNG
// magic individually, so a near-miss is still reported as a
// malformed header rather than a generic parse error.
func (d *decoder) checkSignature() error {
	sig, err := d.cur.ReadBytes(len(Signature))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	parts := []struct {
		name string
		want []byte
	}{
		{"high-bit byte", Signature[0:1]},
		{"format tag", Signature[1:4]},
		{"line ending", Signature[4:6]},
		{"dos eof byte", Signature[6:7]},
		{"final line feed", Signature[7:8]},
	}
	off := 0
	for _, p := range parts {
		if !bytes.Equal(sig[off:off+len(p.want)], p.want) {
			return fmt.Errorf("%w: bad %s at offset %d", ErrMalformedHeader, p.name, off)
		}
		off += len(p.want)
	}
	return nil
}

func (d *decoder) parseChunk() error {
	ch, err := readChunk(d.cur)
	if err != nil {
		return err
	}

	if d.stage == dsStart && ch.Type != chunkIHDR {
		return fmt.Errorf("%w: first chunk is %q, want IHDR", ErrOutOfOrderChunk, ch.Type)
	}

	switch ch.Type {
	case chunkIHDR:
		if d.stage != dsStart {
			return fmt.Errorf("%w: IHDR", ErrDuplicateChunk)
		}
		d.hdr, err = parseHeader(ch.Data)
		if err != nil {
			return err
		}
		d.stage = dsSeenIHDR

	case chunkPLTE:
		if d.pal != nil {
			return fmt.Errorf("%w: PLTE", ErrDuplicateChunk)
		}
		if d.stage >= dsSeenIDAT {
			return fmt.Errorf("%w: PLTE after IDAT", ErrOutOfOrderChunk)
		}
		if d.hdr.ColorType == Grayscale || d.hdr.ColorType == GrayscaleAlpha {
			return fmt.Errorf("%w: color type %s", ErrUnexpectedPalette, d.hdr.ColorType)
		}
		d.pal, err = parsePalette(ch.Data)
		if err != nil {
			return err
		}
		d.stage = dsSeenPLTE

	case chunkIDAT:
		if d.hdr.ColorType == Indexed && d.pal == nil {
			return fmt.Errorf("%w: IDAT before PLTE for indexed color", ErrMissingPalette)
		}
		// multiple IDAT chunks form one logical compressed stream;
		// decompression is deferred until IEND
		d.idat.Write(ch.Data)
		d.stage = dsSeenIDAT

	case chunkIEND:
		d.stage = dsSeenIEND

	default:
		if !ch.isAncillary() {
			return fmt.Errorf("%w: %q", ErrUnsupportedCriticalChunk, ch.Type)
		}
		// ancillary chunks are read, checksummed and skipped
	}
	return nil
}

// reconstruct inflates the aggregated IDAT payload and runs the
// scanline reconstruction pass, row by row, top to bottom.
func reconstruct(compressed []byte, hdr Header, pal Palette) (*pixel.Image, error) {
	bpp, err := hdr.pixelSize()
	if err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("png: inflating sample data: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("png: inflating sample data: %w", err)
	}

	rowSize := 1 + bpp*int(hdr.Width)
	if len(raw) != rowSize*int(hdr.Height) {
		return nil, fmt.Errorf("%w: %d sample bytes for %dx%d image, want %d",
			ErrDimensionMismatch, len(raw), hdr.Width, hdr.Height, rowSize*int(hdr.Height))
	}

	im := pixel.NewImage(int(hdr.Width), int(hdr.Height))

	var prev []byte
	for y := 0; y < int(hdr.Height); y++ {
		line := raw[y*rowSize : (y+1)*rowSize]
		ft, row := line[0], line[1:]

		if err := unfilterRow(ft, row, prev, bpp); err != nil {
			return nil, err
		}
		decodeRow(row, hdr, pal, im.Pix[y*im.Width:(y+1)*im.Width])
		prev = row
	}
	return im, nil
}
