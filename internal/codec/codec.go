// Package codec registers every supported image container behind a
// uniform decode/encode surface, with magic-based detection for the
// formats that carry one.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ctrsuite/ctrimage/internal/bmp"
	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/internal/png"
	"github.com/ctrsuite/ctrimage/internal/texture"
	"github.com/ctrsuite/ctrimage/internal/tga"
	"github.com/ctrsuite/ctrimage/pkg/table"
)

var (
	ErrUnknownFormat = errors.New("codec: unknown format")
	ErrNoEncoder     = errors.New("codec: format does not support encoding")
)

// DecodeOptions carries caller-supplied metadata for formats whose
// byte stream has no header of its own.
type DecodeOptions struct {
	Width  int
	Height int
}

// Codec describes one supported container format.
type Codec struct {
	Name       string
	Extensions []string
	// Signatures holds the magic prefixes identifying the format,
	// empty for headerless formats.
	Signatures [][]byte
	// NeedsDimensions marks formats that cannot be decoded without
	// caller-supplied width and height.
	NeedsDimensions bool

	Decode func(data []byte, opts DecodeOptions) (*pixel.Image, error)
	// Encode is nil for decode-only formats.
	Encode func(im *pixel.Image) ([]byte, error)
}

// Registry indexes codecs by name, extension and magic signature.
type Registry struct {
	sigs   *table.PrefixTable[[]*Codec]
	byName map[string]*Codec
	all    []*Codec
}

func NewRegistry() *Registry {
	return &Registry{
		sigs:   table.New[[]*Codec](),
		byName: make(map[string]*Codec),
	}
}

func (r *Registry) Add(c *Codec) {
	r.all = append(r.all, c)
	r.byName[c.Name] = c
	for _, ext := range c.Extensions {
		r.byName[ext] = c
	}
	for _, sig := range c.Signatures {
		codecs, _ := r.sigs.Get(sig)
		r.sigs.Insert(sig, append(codecs, c))
	}
}

// Detect identifies the codec whose magic signature prefixes data.
// Headerless formats are never detected; select them by name.
func (r *Registry) Detect(data []byte) (*Codec, bool) {
	var found *Codec
	r.sigs.Walk(data, func(codecs []*Codec) bool {
		if len(codecs) > 0 {
			found = codecs[0]
			return true
		}
		return false
	})
	return found, found != nil
}

// Lookup resolves a format by name or file extension,
// case-insensitively.
func (r *Registry) Lookup(name string) (*Codec, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimPrefix(name, "."))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return c, nil
}

// All returns every registered codec in registration order.
func (r *Registry) All() []*Codec {
	return r.all
}

// Default builds the registry of built-in codecs.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range builtin {
		r.Add(c)
	}
	return r
}

var builtin = []*Codec{
	{
		Name:       "png",
		Extensions: []string{"png"},
		Signatures: [][]byte{png.Signature[:]},
		Decode: func(data []byte, _ DecodeOptions) (*pixel.Image, error) {
			im, err := png.Decode(data)
			if err != nil {
				return nil, err
			}
			return im.Pixels, nil
		},
		Encode: EncodePNG,
	},
	{
		Name:       "tga",
		Extensions: []string{"tga"},
		Decode: func(data []byte, _ DecodeOptions) (*pixel.Image, error) {
			return tga.Decode(data)
		},
		Encode: tga.Encode,
	},
	{
		Name:       "bmp",
		Extensions: []string{"bmp"},
		Signatures: [][]byte{[]byte("BM")},
		Decode: func(data []byte, _ DecodeOptions) (*pixel.Image, error) {
			return bmp.Decode(data)
		},
		Encode: bmp.Encode,
	},
	{
		Name:            "etc1a4",
		Extensions:      []string{"etc1a4", "etc1"},
		NeedsDimensions: true,
		Decode: func(data []byte, opts DecodeOptions) (*pixel.Image, error) {
			return texture.DecodeETC1A4(data, opts.Width, opts.Height)
		},
		// block compression is decode-only
	},
	{
		Name:            "rgb565a4",
		Extensions:      []string{"rgb565a4", "rgb565"},
		NeedsDimensions: true,
		Decode: func(data []byte, opts DecodeOptions) (*pixel.Image, error) {
			return texture.DecodeRGB565A4(data, opts.Width, opts.Height)
		},
		Encode: texture.EncodeRGB565A4,
	},
}

// EncodePNG wraps a bare pixel raster into an 8-bit RGBA PNG.
func EncodePNG(im *pixel.Image) ([]byte, error) {
	return png.Encode(&png.Image{
		Header: png.Header{
			Width:     uint32(im.Width),
			Height:    uint32(im.Height),
			BitDepth:  8,
			ColorType: png.TrueColorAlpha,
		},
		Pixels: im,
	})
}
