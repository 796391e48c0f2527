package texture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

func TestSigned3(t *testing.T) {
	// all 8 encodings of the 3-bit two's-complement delta
	want := map[uint64]int{
		0: 0, 1: 1, 2: 2, 3: 3,
		4: -4, 5: -3, 6: -2, 7: -1,
	}
	for bits, v := range want {
		require.Equal(t, v, signed3(bits))
	}
}

func TestChannelExpansion(t *testing.T) {
	require.Equal(t, 0, expand5(0))
	require.Equal(t, 255, expand5(31))
	require.Equal(t, 132, expand5(16))

	require.Equal(t, 0, expand4(0))
	require.Equal(t, 255, expand4(15))
	require.Equal(t, 0xAA, expand4(0xA))
}

// individualWord builds a color word in individual mode with both
// sub-block bases set to the same 4-bit channels, table codewords 0
// and all pixel index bits clear.
func individualWord(r, g, b uint64) uint64 {
	return r<<60 | r<<56 | g<<52 | g<<48 | b<<44 | b<<40
}

func TestDecodeBlock_SolidColor(t *testing.T) {
	im := pixel.NewImage(4, 4)
	decodeBlock(individualWord(0xA, 0xB, 0xC), ^uint64(0), im, 0, 0)

	// index 0 of modifier table 0 adds +2 to the expanded base
	want := pixel.Opaque(0xAA+2, 0xBB+2, 0xCC+2)
	for _, p := range im.Pix {
		require.Equal(t, want, p)
	}
}

func TestDecodeBlock_ModifierSelection(t *testing.T) {
	// pixel (0,0) has bit offset 0: set the low-plane bit (MSB) and
	// the high-plane bit (LSB) to select modifier index 3 (-8)
	word := individualWord(0x8, 0x8, 0x8) | 1 | 1<<16

	im := pixel.NewImage(4, 4)
	decodeBlock(word, ^uint64(0), im, 0, 0)

	base := expand4(0x8)
	require.Equal(t, pixel.Opaque(uint8(base-8), uint8(base-8), uint8(base-8)), im.At(0, 0))
	require.Equal(t, pixel.Opaque(uint8(base+2), uint8(base+2), uint8(base+2)), im.At(1, 0))
}

func TestDecodeBlock_DifferentialMode(t *testing.T) {
	// sub-block 1 base 16/16/16, deltas -4 -> sub-block 2 base 12;
	// flip clear, so columns 0-1 come from sub-block 1 and columns
	// 2-3 from sub-block 2
	var word uint64 = 1 << 33
	word |= 16<<59 | 16<<51 | 16<<43
	word |= 4<<56 | 4<<48 | 4<<40 // 3-bit two's-complement -4

	im := pixel.NewImage(4, 4)
	decodeBlock(word, ^uint64(0), im, 0, 0)

	left := uint8(expand5(16) + 2)
	right := uint8(expand5(12) + 2)
	for y := 0; y < 4; y++ {
		require.Equal(t, left, im.At(0, y).R)
		require.Equal(t, left, im.At(1, y).R)
		require.Equal(t, right, im.At(2, y).R)
		require.Equal(t, right, im.At(3, y).R)
	}
}

func TestDecodeBlock_FlipBit(t *testing.T) {
	// individual mode with different bases per sub-block; flip set
	// splits the block into top and bottom halves
	var word uint64 = 1 << 32
	word |= 0xF << 60 // sub-block 1: white-ish
	word |= 0x0 << 56 // sub-block 2: black

	im := pixel.NewImage(4, 4)
	decodeBlock(word, ^uint64(0), im, 0, 0)

	for x := 0; x < 4; x++ {
		require.Equal(t, uint8(255), im.At(x, 0).R) // 255+2 clamps
		require.Equal(t, uint8(255), im.At(x, 1).R)
		require.Equal(t, uint8(2), im.At(x, 2).R)
		require.Equal(t, uint8(2), im.At(x, 3).R)
	}
}

func TestDecodeBlock_AlphaNibbles(t *testing.T) {
	// nibble i belongs to the pixel at raster position i within the
	// block, expanded by replication
	var alpha uint64
	for i := uint(0); i < 16; i++ {
		alpha |= uint64(i) << (4 * i)
	}

	im := pixel.NewImage(4, 4)
	decodeBlock(individualWord(0, 0, 0), alpha, im, 0, 0)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			n := uint8(y*4 + x)
			require.Equal(t, n<<4|n, im.At(x, y).A)
		}
	}
}

func TestDecodeETC1A4_SizeValidation(t *testing.T) {
	_, err := DecodeETC1A4(make([]byte, 64), 8, 8)
	require.NoError(t, err)

	// 4 blocks want 32 or 64 bytes
	_, err = DecodeETC1A4(make([]byte, 48), 8, 8)
	require.ErrorIs(t, err, ErrBufferSizeMismatch)

	_, err = DecodeETC1A4(make([]byte, 63), 8, 8)
	require.ErrorIs(t, err, ErrBufferSizeMismatch)

	_, err = DecodeETC1A4(make([]byte, 32), 4, 8)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = DecodeETC1A4(nil, 0, 8)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDecodeETC1A4_OpaqueWithoutAlphaBlock(t *testing.T) {
	// 8-byte blocks carry no alpha sub-block; every pixel decodes
	// fully opaque
	out := cursor.NewWriter()
	for i := 0; i < 4; i++ {
		out.WriteU64LE(individualWord(0x5, 0x6, 0x7))
	}

	im, err := DecodeETC1A4(out.Bytes(), 8, 8)
	require.NoError(t, err)

	want := pixel.Opaque(0x55+2, 0x66+2, 0x77+2)
	for _, p := range im.Pix {
		require.Equal(t, want, p)
	}
}

func TestDecodeETC1A4_AlphaBlocks(t *testing.T) {
	out := cursor.NewWriter()
	for i := 0; i < 4; i++ {
		out.WriteU64LE(0x7777777777777777) // alpha nibbles
		out.WriteU64LE(individualWord(0x1, 0x2, 0x3))
	}

	im, err := DecodeETC1A4(out.Bytes(), 8, 8)
	require.NoError(t, err)

	for _, p := range im.Pix {
		require.Equal(t, uint8(0x77), p.A)
	}
}

func TestDecodeETC1A4_BlockPlacement(t *testing.T) {
	// four distinct solid blocks over an 8x8 image; arrival order
	// [0,1,2,3] maps to destinations [0,1,2,3] on a 2x2 block grid,
	// so block i lands at block coordinates (i%2, i/2)
	bases := []uint64{0x1, 0x5, 0x9, 0xD}

	out := cursor.NewWriter()
	for _, b := range bases {
		out.WriteU64LE(individualWord(b, b, b))
	}

	im, err := DecodeETC1A4(out.Bytes(), 8, 8)
	require.NoError(t, err)

	for i, b := range bases {
		want := uint8(expand4(int(b)) + 2)
		x := (i % 2) * 4
		y := (i / 2) * 4
		require.Equal(t, want, im.At(x, y).R, "block %d", i)
		require.Equal(t, want, im.At(x+3, y+3).R, "block %d", i)
	}
}
