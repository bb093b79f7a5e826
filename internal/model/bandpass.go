// Package model provides gradient sources that stand in for a
// convolutional network backend. Real backends implement
// dream.GradientSource the same way and plug into the rest of the
// pipeline unchanged.
package model

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/LUCID/internal/dream"
	"github.com/copyleftdev/LUCID/internal/dream/filter"
)

// band holds the inner and outer smoothing scales of one synthetic layer.
type band struct {
	inner float64
	outer float64
}

// bands maps layer names to difference-of-Gaussians scales. Deeper bands
// respond to larger structures, loosely mirroring how activation layers
// deepen in a real network.
var bands = map[string]band{
	"band0": {inner: 0.5, outer: 1.0},
	"band1": {inner: 1.0, outer: 2.0},
	"band2": {inner: 2.0, outer: 4.0},
	"band3": {inner: 4.0, outer: 8.0},
}

// BandpassSource is a deterministic dream.GradientSource: the gradient of
// a tile is its band-pass response (difference of two Gaussian blurs), so
// ascending it amplifies structure at the band's scale. The target's
// channel range masks which channels receive gradient.
type BandpassSource struct{}

// NewBandpassSource creates a BandpassSource.
func NewBandpassSource() *BandpassSource {
	return &BandpassSource{}
}

// Layers returns the available layer names in order.
func (s *BandpassSource) Layers() []string {
	names := make([]string, 0, len(bands))
	for name := range bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gradient implements dream.GradientSource.
func (s *BandpassSource) Gradient(_ context.Context, tile *dream.Image, target dream.LayerTarget) (*dream.Image, error) {
	if tile == nil || len(tile.Data) == 0 {
		return nil, dream.NewError("tile is required").
			WithComponent("model").WithOperation("Gradient")
	}
	b, ok := bands[target.Layer]
	if !ok {
		return nil, dream.NewErrorf("unknown layer %q", target.Layer).
			WithComponent("model").WithOperation("Gradient")
	}
	if target.ChanHi > tile.Channels || (target.ChanHi > 0 && target.ChanLo >= target.ChanHi) {
		return nil, dream.NewErrorf("channel range [%d,%d) invalid for %d channels",
			target.ChanLo, target.ChanHi, tile.Channels).
			WithComponent("model").WithOperation("Gradient")
	}

	out := filter.Gaussian(tile, b.inner, false)
	floats.AddScaled(out.Data, -1, filter.Gaussian(tile, b.outer, false).Data)

	if target.ChanHi > 0 {
		maskChannels(out, target.ChanLo, target.ChanHi)
	}
	return out, nil
}

// maskChannels zeroes every channel outside [lo, hi).
func maskChannels(img *dream.Image, lo, hi int) {
	for i := range img.Data {
		c := i % img.Channels
		if c < lo || c >= hi {
			img.Data[i] = 0
		}
	}
}
