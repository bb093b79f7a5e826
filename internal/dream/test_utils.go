package dream

import (
	"context"
	"math"
)

// ConstantImage builds an image with every value set to v.
func ConstantImage(height, width, channels int, v float64) *Image {
	img := NewImage(height, width, channels)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

// RampImage builds an image whose values increase linearly with the flat
// index. Useful when a test needs non-degenerate gradient statistics.
func RampImage(height, width, channels int) *Image {
	img := NewImage(height, width, channels)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}
	return img
}

// StubGradientSource is a deterministic GradientSource for tests. If Fn is
// set it is invoked per tile; otherwise every gradient value is Fill. Calls
// counts invocations.
type StubGradientSource struct {
	Fill  float64
	Fn    func(tile *Image, target LayerTarget) (*Image, error)
	Calls int
}

// Gradient implements GradientSource.
func (s *StubGradientSource) Gradient(_ context.Context, tile *Image, target LayerTarget) (*Image, error) {
	s.Calls++
	if s.Fn != nil {
		return s.Fn(tile, target)
	}
	out := NewImage(tile.Height, tile.Width, tile.Channels)
	for i := range out.Data {
		out.Data[i] = s.Fill
	}
	return out, nil
}

// NearestResizer is a dependency-free Resizer for tests, using
// nearest-neighbor sampling. Calls counts invocations.
type NearestResizer struct {
	Calls int
}

// Resize implements Resizer.
func (r *NearestResizer) Resize(img *Image, height, width int) (*Image, error) {
	r.Calls++
	if height < 1 || width < 1 {
		return nil, NewErrorf("invalid target shape %dx%d", height, width)
	}
	out := NewImage(height, width, img.Channels)
	for y := 0; y < height; y++ {
		sy := int(math.Floor(float64(y) * float64(img.Height) / float64(height)))
		for x := 0; x < width; x++ {
			sx := int(math.Floor(float64(x) * float64(img.Width) / float64(width)))
			for c := 0; c < img.Channels; c++ {
				out.Set(y, x, c, img.At(sy, sx, c))
			}
		}
	}
	return out, nil
}
