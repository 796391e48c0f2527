package texture

import (
	"fmt"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

const tileDim = 8 // pixels per tile side

// DecodeRGB565A4 decodes a tiled RGB565 color plane followed by a
// 4-bit alpha plane. Both planes are laid out as 8x8 tiles in
// row-major tile order, pixels within a tile in Morton order.
func DecodeRGB565A4(data []byte, width, height int) (*pixel.Image, error) {
	if width <= 0 || height <= 0 || width%tileDim != 0 || height%tileDim != 0 {
		return nil, fmt.Errorf("%w: %dx%d, dimensions must be positive multiples of 8",
			ErrDimensionMismatch, width, height)
	}
	n := width * height
	if len(data) != n*2+n/2 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d image, want %d",
			ErrBufferSizeMismatch, len(data), width, height, n*2+n/2)
	}

	im := pixel.NewImage(width, height)
	cur := cursor.New(data)

	walkTiles(width, height, func(x, y int) {
		v, _ := cur.ReadU16LE()
		p := expand565(v)
		im.Set(x, y, p)
	})

	alpha, _ := cur.ReadBytes(n / 2)
	i := 0
	walkTiles(width, height, func(x, y int) {
		nib := alpha[i/2] >> (4 * uint(i%2)) & 0xF
		i++
		p := im.At(x, y)
		p.A = nib<<4 | nib
		im.Set(x, y, p)
	})

	return im, nil
}

// EncodeRGB565A4 is the inverse of DecodeRGB565A4. Channels are
// truncated to 5/6/5 color bits and a 4-bit alpha.
func EncodeRGB565A4(im *pixel.Image) ([]byte, error) {
	if im.Width <= 0 || im.Height <= 0 || im.Width%tileDim != 0 || im.Height%tileDim != 0 {
		return nil, fmt.Errorf("%w: %dx%d, dimensions must be positive multiples of 8",
			ErrDimensionMismatch, im.Width, im.Height)
	}
	if len(im.Pix) != im.Width*im.Height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d image",
			ErrBufferSizeMismatch, len(im.Pix), im.Width, im.Height)
	}

	out := cursor.NewWriter()
	walkTiles(im.Width, im.Height, func(x, y int) {
		p := im.At(x, y)
		out.WriteU16LE(pack565(p))
	})

	var pending uint8
	i := 0
	walkTiles(im.Width, im.Height, func(x, y int) {
		nib := im.At(x, y).A >> 4
		if i%2 == 0 {
			pending = nib
		} else {
			out.WriteU8(nib<<4 | pending)
		}
		i++
	})

	return out.Bytes(), nil
}

// walkTiles visits every pixel in tiled order: 8x8 tiles row by row,
// Morton order within each tile.
func walkTiles(width, height int, visit func(x, y int)) {
	for ty := 0; ty < height; ty += tileDim {
		for tx := 0; tx < width; tx += tileDim {
			for i := 0; i < tileDim*tileDim; i++ {
				x, y := mortonXY(i)
				visit(tx+x, ty+y)
			}
		}
	}
}

// mortonXY de-interleaves a 6-bit Morton index into tile-local
// coordinates: even bits hold x, odd bits hold y.
func mortonXY(i int) (x, y int) {
	x = i&1 | i>>1&2 | i>>2&4
	y = i>>1&1 | i>>2&2 | i>>3&4
	return x, y
}

func expand565(v uint16) pixel.Pixel {
	r := int(v >> 11 & 0x1F)
	g := int(v >> 5 & 0x3F)
	b := int(v & 0x1F)
	return pixel.Opaque(
		uint8(r<<3|r>>2),
		uint8(g<<2|g>>4),
		uint8(b<<3|b>>2),
	)
}

func pack565(p pixel.Pixel) uint16 {
	return uint16(p.R>>3)<<11 | uint16(p.G>>2)<<5 | uint16(p.B>>3)
}
