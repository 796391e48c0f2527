package png

import (
	"fmt"

	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

// ColorType is the PNG color model, as stored in the IHDR chunk.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	TrueColor      ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	TrueColorAlpha ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case TrueColor:
		return "truecolor"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case TrueColorAlpha:
		return "truecolor+alpha"
	}
	return fmt.Sprintf("ColorType(%d)", uint8(c))
}

// Channels returns the number of samples per pixel. It is always
// derived from the color type, never stored separately.
func (c ColorType) Channels() int {
	switch c {
	case Grayscale, Indexed:
		return 1
	case GrayscaleAlpha:
		return 2
	case TrueColor:
		return 3
	case TrueColorAlpha:
		return 4
	}
	return 0
}

// Header holds the fields of the IHDR chunk.
type Header struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

const ihdrLength = 13

// ParseHeader decodes and validates the payload of an IHDR chunk.
func ParseHeader(data []byte) (Header, error) {
	return parseHeader(data)
}

func parseHeader(data []byte) (Header, error) {
	if len(data) != ihdrLength {
		return Header{}, fmt.Errorf("%w: IHDR length %d, want %d", ErrMalformedHeader, len(data), ihdrLength)
	}
	c := cursor.New(data)

	var hdr Header
	hdr.Width, _ = c.ReadU32BE()
	hdr.Height, _ = c.ReadU32BE()
	hdr.BitDepth, _ = c.ReadU8()
	ct, _ := c.ReadU8()
	hdr.ColorType = ColorType(ct)
	hdr.CompressionMethod, _ = c.ReadU8()
	hdr.FilterMethod, _ = c.ReadU8()
	hdr.InterlaceMethod, _ = c.ReadU8()

	return hdr, hdr.validate()
}

func (h Header) marshal() []byte {
	c := cursor.NewWriter()
	c.WriteU32BE(h.Width)
	c.WriteU32BE(h.Height)
	c.WriteU8(h.BitDepth)
	c.WriteU8(uint8(h.ColorType))
	c.WriteU8(h.CompressionMethod)
	c.WriteU8(h.FilterMethod)
	c.WriteU8(h.InterlaceMethod)
	return c.Bytes()
}

// validate checks every IHDR field against the PNG spec, plus the
// feature subset this codec supports.
func (h Header) validate() error {
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: zero image dimension %dx%d", ErrMalformedHeader, h.Width, h.Height)
	}

	switch h.BitDepth {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidColorDepthCombination, h.BitDepth)
	}

	switch h.ColorType {
	case Grayscale:
		// every bit depth is legal
	case Indexed:
		if h.BitDepth == 16 {
			return fmt.Errorf("%w: indexed color with bit depth 16", ErrInvalidColorDepthCombination)
		}
	case TrueColor, GrayscaleAlpha, TrueColorAlpha:
		if h.BitDepth < 8 {
			return fmt.Errorf("%w: color type %s with bit depth %d",
				ErrInvalidColorDepthCombination, h.ColorType, h.BitDepth)
		}
	default:
		return fmt.Errorf("%w: color type %d", ErrInvalidColorDepthCombination, uint8(h.ColorType))
	}

	if h.CompressionMethod != 0 {
		return fmt.Errorf("%w: compression method %d", ErrMalformedHeader, h.CompressionMethod)
	}
	if h.FilterMethod != 0 {
		return fmt.Errorf("%w: filter method %d", ErrMalformedHeader, h.FilterMethod)
	}
	switch h.InterlaceMethod {
	case 0:
	case 1:
		// structurally valid, but Adam7 is not implemented
		return fmt.Errorf("%w: interlaced images", ErrUnsupportedFeature)
	default:
		return fmt.Errorf("%w: interlace method %d", ErrMalformedHeader, h.InterlaceMethod)
	}
	return nil
}

// pixelSize returns the number of bytes per pixel. Bit depths below 8
// would pack several pixels per byte and are rejected.
func (h Header) pixelSize() (int, error) {
	if h.BitDepth < 8 {
		return 0, ErrUnsupportedBitDepth
	}
	return h.ColorType.Channels() * int(h.BitDepth) / 8, nil
}
