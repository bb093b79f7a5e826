// Package filter provides separable Gaussian smoothing over dream images.
package filter

import (
	"math"

	"github.com/copyleftdev/LUCID/internal/dream"
)

// Gaussian returns a smoothed copy of img. The blur is separable and is
// applied along the two spatial axes; if acrossChannels is set, the channel
// axis is smoothed with the same kernel as well, letting color bleed
// between channels. A sigma <= 0 returns a plain copy.
//
// The kernel radius is int(4*sigma + 0.5) and edges are handled by
// clamping, so constant images are preserved exactly.
func Gaussian(img *dream.Image, sigma float64, acrossChannels bool) *dream.Image {
	out := img.Clone()
	if sigma <= 0 {
		return out
	}

	k := kernel1D(sigma)
	tmp := make([]float64, len(out.Data))

	convolveCols(out.Data, tmp, img.Height, img.Width, img.Channels, k)
	convolveRows(tmp, out.Data, img.Height, img.Width, img.Channels, k)
	if acrossChannels && img.Channels > 1 {
		copy(tmp, out.Data)
		convolveChannels(tmp, out.Data, img.Height, img.Width, img.Channels, k)
	}
	return out
}

// kernel1D builds a normalized Gaussian kernel of radius int(4*sigma+0.5).
func kernel1D(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// convolveCols smooths along the horizontal axis.
func convolveCols(src, dst []float64, height, width, channels int, k []float64) {
	radius := len(k) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				sum := 0.0
				for t := -radius; t <= radius; t++ {
					xx := clamp(x+t, width-1)
					sum += src[(y*width+xx)*channels+c] * k[t+radius]
				}
				dst[(y*width+x)*channels+c] = sum
			}
		}
	}
}

// convolveRows smooths along the vertical axis.
func convolveRows(src, dst []float64, height, width, channels int, k []float64) {
	radius := len(k) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				sum := 0.0
				for t := -radius; t <= radius; t++ {
					yy := clamp(y+t, height-1)
					sum += src[(yy*width+x)*channels+c] * k[t+radius]
				}
				dst[(y*width+x)*channels+c] = sum
			}
		}
	}
}

// convolveChannels smooths along the channel axis.
func convolveChannels(src, dst []float64, height, width, channels int, k []float64) {
	radius := len(k) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * channels
			for c := 0; c < channels; c++ {
				sum := 0.0
				for t := -radius; t <= radius; t++ {
					cc := clamp(c+t, channels-1)
					sum += src[base+cc] * k[t+radius]
				}
				dst[base+c] = sum
			}
		}
	}
}
