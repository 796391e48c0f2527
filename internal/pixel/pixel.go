package pixel

// Pixel is a single RGBA sample. Formats without an alpha channel
// decode to Alpha = 0xFF.
type Pixel struct {
	R, G, B, A uint8
}

// Opaque returns a fully opaque pixel.
func Opaque(r, g, b uint8) Pixel {
	return Pixel{R: r, G: g, B: b, A: 0xFF}
}

// Image is a raster of pixels in row-major order.
// The pixel slice is owned by the codec that produced it.
type Image struct {
	Width  int
	Height int
	Pix    []Pixel
}

func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

func (im *Image) At(x, y int) Pixel {
	return im.Pix[y*im.Width+x]
}

func (im *Image) Set(x, y int, p Pixel) {
	im.Pix[y*im.Width+x] = p
}
