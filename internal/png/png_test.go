package png_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/internal/png"
)

// chunk frames a single chunk the way the PNG spec lays it out,
// using the standard library CRC-32 as an independent reference
// implementation.
func chunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	return buf.Bytes()
}

func deflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func ihdr(width, height uint32, bitDepth, colorType uint8) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], width)
	binary.BigEndian.PutUint32(data[4:8], height)
	data[8] = bitDepth
	data[9] = colorType
	return data
}

func datastream(chunks ...[]byte) []byte {
	buf := append([]byte{}, png.Signature[:]...)
	for _, c := range chunks {
		buf = append(buf, c...)
	}
	return buf
}

func TestDecode_MinimalRGB(t *testing.T) {
	// a 1x1 truecolor image: one scanline [filter=None, R, G, B]
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("IDAT", deflate(t, []byte{0x00, 0x12, 0x34, 0x56})),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, 1, im.Pixels.Width)
	require.Equal(t, 1, im.Pixels.Height)
	require.Equal(t, pixel.Opaque(0x12, 0x34, 0x56), im.Pixels.At(0, 0))
}

func TestDecode_BadMagic(t *testing.T) {
	buf := datastream(chunk("IHDR", ihdr(1, 1, 8, 2)))
	buf[0] = 0x88

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrMalformedHeader)

	// each structural part of the magic is checked individually
	for _, off := range []int{1, 4, 6, 7} {
		bad := datastream(chunk("IHDR", ihdr(1, 1, 8, 2)))
		bad[off] ^= 0xFF
		_, err := png.Decode(bad)
		require.ErrorIs(t, err, png.ErrMalformedHeader)
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	idat := chunk("IDAT", deflate(t, []byte{0x00, 0x12, 0x34, 0x56}))
	idat[8+1] ^= 0x01 // flip one bit inside the payload

	buf := datastream(chunk("IHDR", ihdr(1, 1, 8, 2)), idat, chunk("IEND", nil))

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrChecksumMismatch)

	var cerr *png.ChecksumError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "IDAT", cerr.ChunkType)
	require.NotEqual(t, cerr.Expected, cerr.Actual)
}

func TestDecode_FirstChunkNotIHDR(t *testing.T) {
	buf := datastream(chunk("IDAT", nil))

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrOutOfOrderChunk)
}

func TestDecode_DuplicateIHDR(t *testing.T) {
	hdr := chunk("IHDR", ihdr(1, 1, 8, 2))
	buf := datastream(hdr, hdr)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrDuplicateChunk)
}

func TestDecode_MissingPalette(t *testing.T) {
	// indexed color with IDAT arriving before any PLTE
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 3)),
		chunk("IDAT", deflate(t, []byte{0x00, 0x00})),
		chunk("PLTE", []byte{1, 2, 3}),
		chunk("IEND", nil),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrMissingPalette)
}

func TestDecode_UnexpectedPalette(t *testing.T) {
	for _, colorType := range []uint8{0, 4} {
		buf := datastream(
			chunk("IHDR", ihdr(1, 1, 8, colorType)),
			chunk("PLTE", []byte{1, 2, 3}),
		)

		_, err := png.Decode(buf)
		require.ErrorIs(t, err, png.ErrUnexpectedPalette)
	}
}

func TestDecode_DuplicatePalette(t *testing.T) {
	plte := chunk("PLTE", []byte{1, 2, 3})
	buf := datastream(chunk("IHDR", ihdr(1, 1, 8, 3)), plte, plte)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrDuplicateChunk)
}

func TestDecode_InvalidPaletteLength(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 3)),
		chunk("PLTE", []byte{1, 2, 3, 4}),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrInvalidPaletteLength)
}

func TestDecode_UnsupportedCriticalChunk(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("ABCD", []byte{1, 2, 3}),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrUnsupportedCriticalChunk)
}

func TestDecode_AncillaryChunksSkipped(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("tEXt", []byte("Comment\x00hello")),
		chunk("IDAT", deflate(t, []byte{0x00, 1, 2, 3})),
		chunk("zzZz", []byte{0xFF}),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, pixel.Opaque(1, 2, 3), im.Pixels.At(0, 0))
}

func TestDecode_TrailingBytesDiscarded(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("IDAT", deflate(t, []byte{0x00, 1, 2, 3})),
		chunk("IEND", nil),
	)
	buf = append(buf, 0xDE, 0xAD)

	_, err := png.Decode(buf)
	require.NoError(t, err)
}

func TestDecode_InterlaceUnsupported(t *testing.T) {
	data := ihdr(1, 1, 8, 2)
	data[12] = 1 // Adam7

	buf := datastream(chunk("IHDR", data))

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrUnsupportedFeature)
}

func TestDecode_InvalidColorDepthCombination(t *testing.T) {
	for _, tc := range []struct {
		bitDepth  uint8
		colorType uint8
	}{
		{16, 3}, // indexed with 16-bit samples
		{4, 2},  // truecolor below 8 bits
		{2, 4},  // grayscale+alpha below 8 bits
		{1, 6},  // truecolor+alpha below 8 bits
		{3, 2},  // bit depth not in {1,2,4,8,16}
		{8, 5},  // color type not in {0,2,3,4,6}
	} {
		buf := datastream(chunk("IHDR", ihdr(1, 1, tc.bitDepth, tc.colorType)))

		_, err := png.Decode(buf)
		require.ErrorIs(t, err, png.ErrInvalidColorDepthCombination,
			"bitDepth=%d colorType=%d", tc.bitDepth, tc.colorType)
	}
}

func TestDecode_SubByteDepthUnsupported(t *testing.T) {
	// grayscale at 4 bits is a legal combination, but sub-byte pixel
	// packing is out of scope
	buf := datastream(
		chunk("IHDR", ihdr(2, 1, 4, 0)),
		chunk("IDAT", deflate(t, []byte{0x00, 0x12})),
		chunk("IEND", nil),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrUnsupportedFeature)
}

func TestDecode_UnknownFilterType(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 0)),
		chunk("IDAT", deflate(t, []byte{0x09, 0x42})),
		chunk("IEND", nil),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrUnknownFilterType)
}

func TestDecode_DimensionMismatch(t *testing.T) {
	// scanline data for a 1x1 image against a 2x2 header
	buf := datastream(
		chunk("IHDR", ihdr(2, 2, 8, 0)),
		chunk("IDAT", deflate(t, []byte{0x00, 0x42})),
		chunk("IEND", nil),
	)

	_, err := png.Decode(buf)
	require.ErrorIs(t, err, png.ErrDimensionMismatch)
}

func TestDecode_MultipleIDATChunks(t *testing.T) {
	// the compressed stream may be split at arbitrary byte
	// boundaries across IDAT chunks
	compressed := deflate(t, []byte{0x00, 0xAA, 0xBB, 0xCC})
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("IDAT", compressed[:3]),
		chunk("IDAT", compressed[3:]),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, pixel.Opaque(0xAA, 0xBB, 0xCC), im.Pixels.At(0, 0))
}

func TestDecode_AllFilterTypes(t *testing.T) {
	// 2x4 grayscale exercising every filter type once; expected
	// reconstruction computed by hand
	raw := []byte{
		0x01, 10, 5, // Sub:  10, 15
		0x02, 1, 2, // Up:   11, 17
		0x03, 3, 4, // Avg:  3+5=8, 4+(8+17)/2=16
		0x04, 1, 1, // Paeth
	}
	buf := datastream(
		chunk("IHDR", ihdr(2, 4, 8, 0)),
		chunk("IDAT", deflate(t, raw)),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)

	gray := func(x, y int) uint8 { return im.Pixels.At(x, y).R }
	require.Equal(t, uint8(10), gray(0, 0))
	require.Equal(t, uint8(15), gray(1, 0))
	require.Equal(t, uint8(11), gray(0, 1))
	require.Equal(t, uint8(17), gray(1, 1))
	require.Equal(t, uint8(8), gray(0, 2))
	require.Equal(t, uint8(16), gray(1, 2))
	// Paeth row: left=0, above=8 -> predict 8, out=9;
	// then left=9, above=16, upperLeft=8 -> p=17, predict above=16, out=17
	require.Equal(t, uint8(9), gray(0, 3))
	require.Equal(t, uint8(17), gray(1, 3))
}

func TestDecode_PaletteLookup(t *testing.T) {
	pal := []byte{
		10, 20, 30,
		40, 50, 60,
	}
	// second pixel references an out-of-range index, which decodes
	// to the zero pixel rather than failing
	buf := datastream(
		chunk("IHDR", ihdr(2, 1, 8, 3)),
		chunk("PLTE", pal),
		chunk("IDAT", deflate(t, []byte{0x00, 0x01, 0x05})),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, pixel.Opaque(40, 50, 60), im.Pixels.At(0, 0))
	require.Equal(t, pixel.Pixel{}, im.Pixels.At(1, 0))
}

func TestDecode_Grayscale16(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 16, 0)),
		chunk("IDAT", deflate(t, []byte{0x00, 0xAB, 0xAB})),
		chunk("IEND", nil),
	)

	im, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, pixel.Opaque(0xAB, 0xAB, 0xAB), im.Pixels.At(0, 0))
}

func TestEncode_EmittedCRCsVerify(t *testing.T) {
	im := testImage(3, 2, png.TrueColor)
	buf, err := png.Encode(im)
	require.NoError(t, err)

	// walk the emitted chunks and verify each CRC independently
	require.Equal(t, png.Signature[:], buf[:8])
	off := 8
	types := []string{}
	for off < len(buf) {
		length := int(binary.BigEndian.Uint32(buf[off : off+4]))
		typ := string(buf[off+4 : off+8])
		payload := buf[off+8 : off+8+length]
		stored := binary.BigEndian.Uint32(buf[off+8+length : off+12+length])

		computed := crc32.ChecksumIEEE(append([]byte(typ), payload...))
		require.Equal(t, computed, stored, "chunk %s", typ)

		types = append(types, typ)
		off += 12 + length
	}
	require.Equal(t, []string{"IHDR", "IDAT", "IEND"}, types)
}

func testImage(w, h int, ct png.ColorType) *png.Image {
	im := &png.Image{
		Header: png.Header{
			Width:     uint32(w),
			Height:    uint32(h),
			BitDepth:  8,
			ColorType: ct,
		},
		Pixels: pixel.NewImage(w, h),
	}
	for i := range im.Pixels.Pix {
		v := uint8(i*31 + 7)
		switch ct {
		case png.Grayscale:
			im.Pixels.Pix[i] = pixel.Opaque(v, v, v)
		case png.GrayscaleAlpha:
			im.Pixels.Pix[i] = pixel.Pixel{R: v, G: v, B: v, A: ^v}
		case png.TrueColor:
			im.Pixels.Pix[i] = pixel.Opaque(v, v+1, v+2)
		case png.TrueColorAlpha:
			im.Pixels.Pix[i] = pixel.Pixel{R: v, G: v + 1, B: v + 2, A: v + 3}
		case png.Indexed:
			im.Pixels.Pix[i] = pixel.Opaque(uint8(i%4)*10, uint8(i%4)*20, uint8(i%4)*30)
		}
	}
	return im
}

func TestRoundTrip(t *testing.T) {
	for _, ct := range []png.ColorType{
		png.Grayscale,
		png.TrueColor,
		png.GrayscaleAlpha,
		png.TrueColorAlpha,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			src := testImage(5, 4, ct)

			buf, err := png.Encode(src)
			require.NoError(t, err)

			decoded, err := png.Decode(buf)
			require.NoError(t, err)
			require.Equal(t, src.Header, decoded.Header)
			require.Equal(t, src.Pixels.Pix, decoded.Pixels.Pix)
		})
	}
}

func TestRoundTrip_16Bit(t *testing.T) {
	src := testImage(4, 4, png.TrueColor)
	src.Header.BitDepth = 16

	buf, err := png.Encode(src)
	require.NoError(t, err)

	decoded, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, src.Pixels.Pix, decoded.Pixels.Pix)
}

func TestRoundTrip_Indexed(t *testing.T) {
	src := testImage(4, 4, png.Indexed)

	buf, err := png.Encode(src)
	require.NoError(t, err)

	decoded, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, src.Pixels.Pix, decoded.Pixels.Pix)

	// the built palette deduplicates colors in first-occurrence order
	require.Len(t, decoded.Palette, 4)
	require.Equal(t, pixel.Opaque(0, 0, 0), decoded.Palette[0])
	require.Equal(t, pixel.Opaque(10, 20, 30), decoded.Palette[1])
}

func TestEncode_SuppliedPalette(t *testing.T) {
	src := testImage(4, 4, png.Indexed)
	src.Palette = png.Palette{
		pixel.Opaque(0, 0, 0),
		pixel.Opaque(10, 20, 30),
		pixel.Opaque(20, 40, 60),
		pixel.Opaque(30, 60, 90),
	}

	buf, err := png.Encode(src)
	require.NoError(t, err)

	decoded, err := png.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, src.Pixels.Pix, decoded.Pixels.Pix)
}

func TestEncode_ColorNotInPalette(t *testing.T) {
	src := testImage(4, 4, png.Indexed)
	src.Palette = png.Palette{pixel.Opaque(0, 0, 0)}

	_, err := png.Encode(src)
	require.ErrorIs(t, err, png.ErrColorNotInPalette)
}

func TestEncode_DimensionMismatch(t *testing.T) {
	src := testImage(4, 4, png.TrueColor)
	src.Pixels.Pix = src.Pixels.Pix[:15]

	_, err := png.Encode(src)
	require.ErrorIs(t, err, png.ErrDimensionMismatch)
}

func TestEncode_ValidatesBeforeEmitting(t *testing.T) {
	src := testImage(4, 4, png.TrueColor)
	src.Header.InterlaceMethod = 1

	buf, err := png.Encode(src)
	require.ErrorIs(t, err, png.ErrUnsupportedFeature)
	require.Nil(t, buf)
}

func TestChunks(t *testing.T) {
	buf := datastream(
		chunk("IHDR", ihdr(1, 1, 8, 2)),
		chunk("tEXt", []byte("Comment\x00hi")),
		chunk("IDAT", deflate(t, []byte{0x00, 1, 2, 3})),
		chunk("IEND", nil),
	)

	chunks, err := png.Chunks(buf)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	require.Equal(t, "tEXt", chunks[1].Type)
	require.Equal(t, uint32(10), chunks[1].Length)

	hdr, err := png.ParseHeader(chunks[0].Data)
	require.NoError(t, err)
	require.Equal(t, uint32(1), hdr.Width)
	require.Equal(t, png.TrueColor, hdr.ColorType)

	_, err = png.Chunks([]byte("not a png"))
	require.ErrorIs(t, err, png.ErrMalformedHeader)
}

func TestDecode_TruncatedStream(t *testing.T) {
	buf := datastream(chunk("IHDR", ihdr(1, 1, 8, 2)))
	buf = buf[:len(buf)-2]

	_, err := png.Decode(buf)
	require.Error(t, err)
	require.False(t, errors.Is(err, png.ErrChecksumMismatch))
}
