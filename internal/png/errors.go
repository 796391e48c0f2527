package png

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader              = errors.New("png: malformed file header")
	ErrChecksumMismatch             = errors.New("png: chunk checksum mismatch")
	ErrOutOfOrderChunk              = errors.New("png: out of order chunk")
	ErrDuplicateChunk               = errors.New("png: duplicate chunk")
	ErrMissingPalette               = errors.New("png: missing PLTE chunk")
	ErrUnexpectedPalette            = errors.New("png: unexpected PLTE chunk")
	ErrUnsupportedCriticalChunk     = errors.New("png: unsupported critical chunk")
	ErrInvalidColorDepthCombination = errors.New("png: invalid color type and bit depth combination")
	ErrUnsupportedFeature           = errors.New("png: unsupported feature")
	ErrUnknownFilterType            = errors.New("png: unknown filter type")
	ErrInvalidPaletteLength         = errors.New("png: invalid palette length")
	ErrColorNotInPalette            = errors.New("png: color not in palette")
	ErrDimensionMismatch            = errors.New("png: pixel data does not match image dimensions")
)

// ErrUnsupportedBitDepth rejects bit depths below 8. Sub-byte pixel
// packing is not implemented.
var ErrUnsupportedBitDepth = fmt.Errorf("%w: bit depth below 8", ErrUnsupportedFeature)

// ChecksumError reports a CRC-32 mismatch for a single chunk. It
// carries enough context to diagnose the failure without re-parsing.
type ChecksumError struct {
	ChunkType string
	Expected  uint32
	Actual    uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("png: checksum mismatch on %q chunk: expected %08x, got %08x",
		e.ChunkType, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}
