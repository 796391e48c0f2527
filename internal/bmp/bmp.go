// Package bmp implements the uncompressed 24- and 32-bit subset of
// the Windows BMP container (BITMAPINFOHEADER only).
package bmp

import (
	"errors"
	"fmt"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

var (
	ErrMalformedHeader    = errors.New("bmp: malformed header")
	ErrUnsupportedFeature = errors.New("bmp: unsupported feature")
	ErrBufferSizeMismatch = errors.New("bmp: pixel data does not match image dimensions")
	ErrDimensionMismatch  = errors.New("bmp: pixel count does not match image dimensions")
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40

	compressionRGB = 0
)

// Decode parses an uncompressed BMP buffer. Positive heights (the
// common bottom-up layout) and negative heights (top-down) are both
// handled; the result is always top-down.
func Decode(data []byte) (*pixel.Image, error) {
	c := cursor.New(data)
	if c.Remaining() < fileHeaderSize+infoHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(data))
	}

	magic, _ := c.ReadBytes(2)
	if magic[0] != 'B' || magic[1] != 'M' {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, magic)
	}
	c.Seek(10)
	dataOffset, _ := c.ReadU32LE()

	headerSize, _ := c.ReadU32LE()
	if headerSize != infoHeaderSize {
		return nil, fmt.Errorf("%w: info header size %d", ErrUnsupportedFeature, headerSize)
	}
	width32, _ := c.ReadU32LE()
	height32, _ := c.ReadU32LE()
	planes, _ := c.ReadU16LE()
	depth, _ := c.ReadU16LE()
	compression, _ := c.ReadU32LE()

	width := int(int32(width32))
	height := int(int32(height32))
	topDown := height < 0
	if topDown {
		height = -height
	}

	if width <= 0 || height == 0 {
		return nil, fmt.Errorf("%w: image dimensions %dx%d", ErrMalformedHeader, width, height)
	}
	if planes != 1 {
		return nil, fmt.Errorf("%w: %d color planes", ErrMalformedHeader, planes)
	}
	if compression != compressionRGB {
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedFeature, compression)
	}
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedFeature, depth)
	}

	bpp := int(depth) / 8
	rowSize := (width*bpp + 3) &^ 3 // rows pad to 4 bytes

	if err := c.Seek(int(dataOffset)); err != nil {
		return nil, fmt.Errorf("%w: pixel data offset %d", ErrMalformedHeader, dataOffset)
	}
	raw, err := c.ReadBytes(rowSize * height)
	if err != nil {
		return nil, fmt.Errorf("%w: %d pixel bytes for %dx%d image, want %d",
			ErrBufferSizeMismatch, c.Remaining(), width, height, rowSize*height)
	}

	im := pixel.NewImage(width, height)
	for y := 0; y < height; y++ {
		destY := height - 1 - y
		if topDown {
			destY = y
		}
		row := raw[y*rowSize:]
		for x := 0; x < width; x++ {
			i := x * bpp
			p := pixel.Opaque(row[i+2], row[i+1], row[i]) // stored as BGR
			if bpp == 4 {
				p.A = row[i+3]
			}
			im.Set(x, destY, p)
		}
	}
	return im, nil
}

// Encode serializes an image as an uncompressed 32-bit bottom-up BMP.
func Encode(im *pixel.Image) ([]byte, error) {
	if im.Width <= 0 || im.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, im.Width, im.Height)
	}
	if len(im.Pix) != im.Width*im.Height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d image",
			ErrDimensionMismatch, len(im.Pix), im.Width, im.Height)
	}

	rowSize := im.Width * 4 // 32-bit rows are already 4-byte aligned
	imageSize := rowSize * im.Height

	out := cursor.NewWriter()
	out.WriteBytes([]byte("BM"))
	out.WriteU32LE(uint32(fileHeaderSize + infoHeaderSize + imageSize))
	out.WriteU32LE(0) // reserved
	out.WriteU32LE(fileHeaderSize + infoHeaderSize)

	out.WriteU32LE(infoHeaderSize)
	out.WriteU32LE(uint32(im.Width))
	out.WriteU32LE(uint32(im.Height)) // positive height: bottom-up
	out.WriteU16LE(1)                 // planes
	out.WriteU16LE(32)
	out.WriteU32LE(compressionRGB)
	out.WriteU32LE(uint32(imageSize))
	out.WriteU32LE(2835) // 72 DPI
	out.WriteU32LE(2835)
	out.WriteU32LE(0) // palette colors
	out.WriteU32LE(0) // important colors

	for y := im.Height - 1; y >= 0; y-- {
		for x := 0; x < im.Width; x++ {
			p := im.At(x, y)
			out.WriteU8(p.B)
			out.WriteU8(p.G)
			out.WriteU8(p.R)
			out.WriteU8(p.A)
		}
	}
	return out.Bytes(), nil
}
