// Package tga implements the uncompressed true-color subset of the
// TGA container. RLE and color-mapped variants are rejected.
package tga

import (
	"errors"
	"fmt"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

var (
	ErrMalformedHeader    = errors.New("tga: malformed header")
	ErrUnsupportedFeature = errors.New("tga: unsupported feature")
	ErrBufferSizeMismatch = errors.New("tga: pixel data does not match image dimensions")
	ErrDimensionMismatch  = errors.New("tga: pixel count does not match image dimensions")
)

const (
	headerSize = 18

	typeTrueColor    = 2
	typeTrueColorRLE = 10

	// descriptor bit 5: rows are stored top to bottom
	descTopOrigin = 0x20
)

// Decode parses an uncompressed true-color TGA buffer. Both row
// origins are handled; the result is always top-down.
func Decode(data []byte) (*pixel.Image, error) {
	c := cursor.New(data)
	if c.Remaining() < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(data))
	}

	idLength, _ := c.ReadU8()
	colorMapType, _ := c.ReadU8()
	imageType, _ := c.ReadU8()
	c.Seek(12) // color map spec and origin are unused
	width, _ := c.ReadU16LE()
	height, _ := c.ReadU16LE()
	depth, _ := c.ReadU8()
	descriptor, _ := c.ReadU8()

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped images", ErrUnsupportedFeature)
	}
	switch imageType {
	case typeTrueColor:
	case typeTrueColorRLE:
		return nil, fmt.Errorf("%w: RLE compression", ErrUnsupportedFeature)
	default:
		return nil, fmt.Errorf("%w: image type %d", ErrUnsupportedFeature, imageType)
	}
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedFeature, depth)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero image dimension %dx%d", ErrMalformedHeader, width, height)
	}

	if _, err := c.ReadBytes(int(idLength)); err != nil {
		return nil, fmt.Errorf("%w: truncated id field", ErrMalformedHeader)
	}

	bpp := int(depth) / 8
	raw, err := c.ReadBytes(int(width) * int(height) * bpp)
	if err != nil {
		return nil, fmt.Errorf("%w: %d pixel bytes for %dx%d image, want %d",
			ErrBufferSizeMismatch, c.Remaining(), width, height, int(width)*int(height)*bpp)
	}

	im := pixel.NewImage(int(width), int(height))
	topOrigin := descriptor&descTopOrigin != 0

	for y := 0; y < im.Height; y++ {
		destY := y
		if !topOrigin {
			destY = im.Height - 1 - y
		}
		for x := 0; x < im.Width; x++ {
			i := (y*im.Width + x) * bpp
			p := pixel.Opaque(raw[i+2], raw[i+1], raw[i]) // stored as BGR
			if bpp == 4 {
				p.A = raw[i+3]
			}
			im.Set(x, destY, p)
		}
	}
	return im, nil
}

// Encode serializes an image as an uncompressed 32-bit true-color
// TGA with a top-left origin.
func Encode(im *pixel.Image) ([]byte, error) {
	if im.Width <= 0 || im.Height <= 0 || im.Width > 0xFFFF || im.Height > 0xFFFF {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, im.Width, im.Height)
	}
	if len(im.Pix) != im.Width*im.Height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d image",
			ErrDimensionMismatch, len(im.Pix), im.Width, im.Height)
	}

	out := cursor.NewWriter()
	out.WriteU8(0)             // no id field
	out.WriteU8(0)             // no color map
	out.WriteU8(typeTrueColor) // uncompressed true-color
	out.WriteBytes(make([]byte, 9))
	out.WriteU16LE(uint16(im.Width))
	out.WriteU16LE(uint16(im.Height))
	out.WriteU8(32)
	out.WriteU8(descTopOrigin | 8) // top-left origin, 8 alpha bits

	for _, p := range im.Pix {
		out.WriteU8(p.B)
		out.WriteU8(p.G)
		out.WriteU8(p.R)
		out.WriteU8(p.A)
	}
	return out.Bytes(), nil
}
