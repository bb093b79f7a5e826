package dream

// Image is a dense float64 array with axes (height, width, channels),
// stored row-major. Pixel values are not range-limited: intermediate
// images routinely leave [0, 255] during optimization and are only
// clamped at encode time.
type Image struct {
	Height   int
	Width    int
	Channels int
	Data     []float64
}

// NewImage allocates a zero-valued image of the given shape.
func NewImage(height, width, channels int) *Image {
	if height < 1 || width < 1 || channels < 1 {
		panic("dream: image dimensions must be positive")
	}
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     make([]float64, height*width*channels),
	}
}

// Shape returns (height, width, channels).
func (im *Image) Shape() (int, int, int) {
	return im.Height, im.Width, im.Channels
}

// SameShape reports whether other has identical dimensions.
func (im *Image) SameShape(other *Image) bool {
	return other != nil &&
		im.Height == other.Height &&
		im.Width == other.Width &&
		im.Channels == other.Channels
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := &Image{
		Height:   im.Height,
		Width:    im.Width,
		Channels: im.Channels,
		Data:     make([]float64, len(im.Data)),
	}
	copy(out.Data, im.Data)
	return out
}

// At returns the value at pixel (y, x), channel c.
func (im *Image) At(y, x, c int) float64 {
	return im.Data[(y*im.Width+x)*im.Channels+c]
}

// Set stores v at pixel (y, x), channel c.
func (im *Image) Set(y, x, c int, v float64) {
	im.Data[(y*im.Width+x)*im.Channels+c] = v
}

// Region copies the sub-image covering rows [row0, row1) and columns
// [col0, col1), all channels. Ranges must lie within the image.
func (im *Image) Region(row0, row1, col0, col1 int) *Image {
	if row0 < 0 || col0 < 0 || row1 > im.Height || col1 > im.Width ||
		row0 >= row1 || col0 >= col1 {
		panic("dream: region out of bounds")
	}
	out := NewImage(row1-row0, col1-col0, im.Channels)
	rowLen := (col1 - col0) * im.Channels
	for y := row0; y < row1; y++ {
		src := (y*im.Width + col0) * im.Channels
		dst := (y - row0) * rowLen
		copy(out.Data[dst:dst+rowLen], im.Data[src:src+rowLen])
	}
	return out
}

// SetRegion writes tile into the image with its top-left corner at
// (row0, col0). The tile must fit inside the image.
func (im *Image) SetRegion(row0, col0 int, tile *Image) {
	if row0 < 0 || col0 < 0 ||
		row0+tile.Height > im.Height || col0+tile.Width > im.Width ||
		tile.Channels != im.Channels {
		panic("dream: region out of bounds")
	}
	rowLen := tile.Width * im.Channels
	for y := 0; y < tile.Height; y++ {
		src := y * rowLen
		dst := ((row0+y)*im.Width + col0) * im.Channels
		copy(im.Data[dst:dst+rowLen], tile.Data[src:src+rowLen])
	}
}
