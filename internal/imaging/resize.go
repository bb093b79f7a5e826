package imaging

import (
	"math"

	"github.com/copyleftdev/LUCID/internal/dream"
)

// BilinearResizer implements dream.Resizer with bilinear sampling directly
// on float64 data. Octave intermediates routinely leave [0, 255], so the
// resize must not quantize or clamp values on the way through.
type BilinearResizer struct{}

// Resize implements dream.Resizer.
func (BilinearResizer) Resize(img *dream.Image, height, width int) (*dream.Image, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, dream.NewError("image is required").
			WithComponent("imaging").WithOperation("Resize")
	}
	if height < 1 || width < 1 {
		return nil, dream.NewErrorf("invalid target shape %dx%d", height, width).
			WithComponent("imaging").WithOperation("Resize")
	}
	if height == img.Height && width == img.Width {
		return img.Clone(), nil
	}

	out := dream.NewImage(height, width, img.Channels)
	scaleY := float64(img.Height) / float64(height)
	scaleX := float64(img.Width) / float64(width)

	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*scaleY - 0.5
		y0 := int(math.Floor(fy))
		wy := fy - float64(y0)
		y1 := y0 + 1
		if y0 < 0 {
			y0 = 0
		}
		if y1 > img.Height-1 {
			y1 = img.Height - 1
		}

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*scaleX - 0.5
			x0 := int(math.Floor(fx))
			wx := fx - float64(x0)
			x1 := x0 + 1
			if x0 < 0 {
				x0 = 0
			}
			if x1 > img.Width-1 {
				x1 = img.Width - 1
			}

			for c := 0; c < img.Channels; c++ {
				top := img.At(y0, x0, c)*(1-wx) + img.At(y0, x1, c)*wx
				bot := img.At(y1, x0, c)*(1-wx) + img.At(y1, x1, c)*wx
				out.Set(y, x, c, top*(1-wy)+bot*wy)
			}
		}
	}
	return out, nil
}
