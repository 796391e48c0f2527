// Package texture implements the PICA200 texture formats used by
// 3DS-era game assets: the ETC1A4 compressed-block format
// (decode-only) and the RGB565A4 tiled format.
package texture

import (
	"fmt"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

const blockDim = 4 // pixels per block side

// modifierTables holds the eight ETC1 intensity modifier tables. A
// sub-block's 3-bit codeword selects a table; the per-pixel 2-bit
// index selects one of its four signed offsets.
var modifierTables = [8][4]int{
	{2, 8, -2, -8},
	{5, 17, -5, -17},
	{9, 29, -9, -29},
	{13, 42, -13, -42},
	{18, 60, -18, -60},
	{24, 80, -24, -80},
	{33, 106, -33, -106},
	{47, 183, -47, -183},
}

// subBlockLayout maps (flip, blockX, blockY) to the sub-block owning
// that pixel. With the flip bit clear a block splits into the left
// and right 2x4 halves; with it set, into the top and bottom 4x2
// halves.
var subBlockLayout = [2][blockDim][blockDim]uint8{
	{ // flip = 0: left columns are sub-block 0
		{0, 0, 1, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	},
	{ // flip = 1: top rows are sub-block 0
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{1, 1, 1, 1},
	},
}

type rgb struct {
	r, g, b int
}

// DecodeETC1A4 decodes a scrambled stream of ETC1 blocks into a
// raster image. The presence of per-block alpha sub-blocks is
// inferred from the buffer size: 16 bytes per block means alpha,
// 8 bytes per block means fully opaque.
func DecodeETC1A4(data []byte, width, height int) (*pixel.Image, error) {
	if width <= 0 || height <= 0 || width%(2*blockDim) != 0 || height%(2*blockDim) != 0 {
		return nil, fmt.Errorf("%w: %dx%d, dimensions must be positive multiples of 8",
			ErrDimensionMismatch, width, height)
	}

	numBlocks := (width / blockDim) * (height / blockDim)
	blockSize := len(data) / numBlocks
	if blockSize*numBlocks != len(data) || (blockSize != 8 && blockSize != 16) {
		return nil, fmt.Errorf("%w: %d bytes for %d blocks, want %d or %d",
			ErrBufferSizeMismatch, len(data), numBlocks, numBlocks*8, numBlocks*16)
	}
	hasAlpha := blockSize == 16

	// blocks decode in arrival order into a scrambled buffer; the
	// descramble pass then permutes whole blocks into raster order
	scrambled := pixel.NewImage(width, height)

	cur := cursor.New(data)
	blocksPerRow := width / blockDim
	for i := 0; i < numBlocks; i++ {
		var alpha uint64 = ^uint64(0) // opaque nibbles
		if hasAlpha {
			alpha, _ = cur.ReadU64LE()
		}
		color, _ := cur.ReadU64LE()

		bx := (i % blocksPerRow) * blockDim
		by := (i / blocksPerRow) * blockDim
		decodeBlock(color, alpha, scrambled, bx, by)
	}

	return descramble(scrambled, width, height), nil
}

// decodeBlock expands one 64-bit ETC1 color word (plus the 16 alpha
// nibbles) into the 4x4 pixel square at (bx, by).
func decodeBlock(word, alpha uint64, im *pixel.Image, bx, by int) {
	flip := word>>32&1 == 1
	diff := word>>33&1 == 1
	table2 := int(word >> 34 & 0x7)
	table1 := int(word >> 37 & 0x7)

	var base1, base2 rgb
	if diff {
		// 5-bit bases plus 3-bit two's-complement deltas
		r1 := int(word >> 59 & 0x1F)
		g1 := int(word >> 51 & 0x1F)
		b1 := int(word >> 43 & 0x1F)
		r2 := clamp5(r1 + signed3(word>>56&0x7))
		g2 := clamp5(g1 + signed3(word>>48&0x7))
		b2 := clamp5(b1 + signed3(word>>40&0x7))

		base1 = rgb{expand5(r1), expand5(g1), expand5(b1)}
		base2 = rgb{expand5(r2), expand5(g2), expand5(b2)}
	} else {
		// independent 4-bit bases
		base1 = rgb{
			expand4(int(word >> 60 & 0xF)),
			expand4(int(word >> 52 & 0xF)),
			expand4(int(word >> 44 & 0xF)),
		}
		base2 = rgb{
			expand4(int(word >> 56 & 0xF)),
			expand4(int(word >> 48 & 0xF)),
			expand4(int(word >> 40 & 0xF)),
		}
	}

	colors1 := colorTable(base1, table1)
	colors2 := colorTable(base2, table2)

	layout := &subBlockLayout[0]
	if flip {
		layout = &subBlockLayout[1]
	}

	for y := 0; y < blockDim; y++ {
		for x := 0; x < blockDim; x++ {
			// pixel index bits live in two 16-bit planes at offset
			// x*4+y: most significant bit in the low plane, least
			// significant bit in the high plane
			off := uint(x*blockDim + y)
			msb := word >> off & 1
			lsb := word >> (off + 16) & 1
			idx := msb<<1 | lsb

			c := colors1[idx]
			if layout[y][x] == 1 {
				c = colors2[idx]
			}

			a := uint8(alpha >> (4 * uint(y*blockDim+x)) & 0xF)
			im.Set(bx+x, by+y, pixel.Pixel{
				R: c.R, G: c.G, B: c.B,
				A: a<<4 | a,
			})
		}
	}
}

// colorTable builds the four concrete colors of one sub-block by
// offsetting its base color with each modifier table entry.
func colorTable(base rgb, table int) [4]pixel.Pixel {
	var out [4]pixel.Pixel
	for i, mod := range modifierTables[table] {
		out[i] = pixel.Opaque(
			clamp8(base.r+mod),
			clamp8(base.g+mod),
			clamp8(base.b+mod),
		)
	}
	return out
}

// signed3 decodes a 3-bit two's-complement field into -4..3.
func signed3(v uint64) int {
	if v >= 4 {
		return int(v) - 8
	}
	return int(v)
}

// expand5 widens a 5-bit channel to 8 bits, replicating the high
// bits into the low ones.
func expand5(v int) int {
	return v<<3 | v>>2
}

// expand4 widens a 4-bit channel to 8 bits.
func expand4(v int) int {
	return v<<4 | v
}

// clamp5 keeps an out-of-range differential base in the valid 5-bit
// range. The ETC1 spec leaves such encodings undefined.
func clamp5(v int) int {
	if v < 0 {
		return 0
	}
	if v > 31 {
		return 31
	}
	return v
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
