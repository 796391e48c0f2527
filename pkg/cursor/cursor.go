package cursor

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor is a sequential reader/writer over an in-memory byte buffer.
// Reads never go past the end of the buffer; writes past the end grow it.
type Cursor struct {
	buf []byte
	off int
}

func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// NewWriter returns an empty cursor suitable for building a buffer.
func NewWriter() *Cursor {
	return &Cursor{}
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Offset returns the current read/write position.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Seek moves the cursor to an absolute offset within the buffer.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return fmt.Errorf("seek offset %d out of range [0, %d]", off, len(c.buf))
	}
	c.off = off
	return nil
}

func (c *Cursor) ensure(n int) error {
	if c.off+n > len(c.buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// ReadBytes returns the next n bytes without copying them.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.ensure(1); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

func (c *Cursor) ReadU16BE() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *Cursor) ReadU16LE() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadU32BE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) grow(n int) []byte {
	if c.off+n > len(c.buf) {
		if c.off+n > cap(c.buf) {
			newBuf := make([]byte, c.off+n, nextCap(cap(c.buf), c.off+n))
			copy(newBuf, c.buf)
			c.buf = newBuf
		} else {
			c.buf = c.buf[:c.off+n]
		}
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// nextCap doubles the capacity until it fits n, so that repeated
// appends stay O(1) amortized.
func nextCap(cur, n int) int {
	if cur == 0 {
		cur = 64
	}
	for cur < n {
		cur *= 2
	}
	return cur
}

func (c *Cursor) WriteBytes(b []byte) {
	copy(c.grow(len(b)), b)
}

func (c *Cursor) WriteU8(v uint8) {
	c.grow(1)[0] = v
}

func (c *Cursor) WriteU16BE(v uint16) {
	binary.BigEndian.PutUint16(c.grow(2), v)
}

func (c *Cursor) WriteU16LE(v uint16) {
	binary.LittleEndian.PutUint16(c.grow(2), v)
}

func (c *Cursor) WriteU32BE(v uint32) {
	binary.BigEndian.PutUint32(c.grow(4), v)
}

func (c *Cursor) WriteU32LE(v uint32) {
	binary.LittleEndian.PutUint32(c.grow(4), v)
}

func (c *Cursor) WriteU64LE(v uint64) {
	binary.LittleEndian.PutUint64(c.grow(8), v)
}
