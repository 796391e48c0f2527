package png

import (
	"fmt"

	"github.com/snksoft/crc"

	"github.com/ctrsuite/ctrimage/pkg/cursor"
)

// Chunk is a single length-prefixed, typed, checksummed record of a
// PNG datastream. The CRC covers the type tag and the data bytes, but
// not the length prefix.
type Chunk struct {
	Length uint32
	Type   string
	Data   []byte
	Crc    uint32
}

const (
	chunkIHDR = "IHDR"
	chunkPLTE = "PLTE"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
)

// isAncillary reports whether the chunk may be skipped by decoders
// that do not understand it. Per the PNG spec this is signalled by a
// lowercase first byte of the type tag.
func (c *Chunk) isAncillary() bool {
	return len(c.Type) == 4 && c.Type[0] >= 'a' && c.Type[0] <= 'z'
}

func chunkCRC(typ string, data []byte) uint32 {
	h := crc.NewHash(crc.CRC32)
	h.Write([]byte(typ))
	h.Write(data)
	return uint32(h.CRC())
}

// readChunk reads the next chunk off the cursor and verifies its CRC.
// The chunk is read fully before any validation takes place.
func readChunk(c *cursor.Cursor) (*Chunk, error) {
	length, err := c.ReadU32BE()
	if err != nil {
		return nil, err
	}
	typ, err := c.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	data, err := c.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	stored, err := c.ReadU32BE()
	if err != nil {
		return nil, err
	}

	ch := &Chunk{
		Length: length,
		Type:   string(typ),
		Data:   data,
		Crc:    stored,
	}

	if computed := chunkCRC(ch.Type, ch.Data); computed != stored {
		return nil, &ChecksumError{
			ChunkType: ch.Type,
			Expected:  computed,
			Actual:    stored,
		}
	}
	return ch, nil
}

// Chunks splits a datastream into its raw chunks, verifying the
// signature and each chunk's CRC. Chunk ordering rules are not
// enforced; use Decode for full validation.
func Chunks(data []byte) ([]Chunk, error) {
	c := cursor.New(data)

	sig, err := c.ReadBytes(len(Signature))
	if err != nil || string(sig) != string(Signature[:]) {
		return nil, fmt.Errorf("%w: bad signature", ErrMalformedHeader)
	}

	var chunks []Chunk
	for c.Remaining() > 0 {
		ch, err := readChunk(c)
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, *ch)
		if ch.Type == chunkIEND {
			break
		}
	}
	return chunks, nil
}

// writeChunk frames a chunk onto the cursor, computing its CRC.
func writeChunk(c *cursor.Cursor, typ string, data []byte) error {
	if len(typ) != 4 {
		return fmt.Errorf("png: invalid chunk type %q", typ)
	}
	c.WriteU32BE(uint32(len(data)))
	c.WriteBytes([]byte(typ))
	c.WriteBytes(data)
	c.WriteU32BE(chunkCRC(typ, data))
	return nil
}
