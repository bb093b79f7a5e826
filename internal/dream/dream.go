// Package dream defines the data model and collaborator interfaces for the
// LUCID dream synthesis core: iterative gradient ascent on an image that
// amplifies the patterns a convolutional network responds to.
package dream

import (
	"context"
)

// LayerTarget identifies which network activation to maximize. It is an
// opaque tag from the core's point of view: the gradient source interprets
// it, the core only passes it through.
type LayerTarget struct {
	// Layer is the name of the activation layer, as understood by the
	// gradient source.
	Layer string

	// ChanLo and ChanHi select a half-open channel range within the layer.
	// A ChanHi of zero means the whole layer.
	ChanLo int
	ChanHi int
}

// Valid reports whether the target names a layer and, if a channel range is
// set, whether the range is well formed.
func (t LayerTarget) Valid() bool {
	if t.Layer == "" {
		return false
	}
	if t.ChanHi == 0 {
		return t.ChanLo == 0
	}
	return t.ChanLo >= 0 && t.ChanLo < t.ChanHi
}

// GradientSource computes the gradient of the mean activation of a target
// layer with respect to an input image tile. The returned image has the
// same shape as the tile. Implementations wrap the actual network backend.
type GradientSource interface {
	Gradient(ctx context.Context, tile *Image, target LayerTarget) (*Image, error)
}

// GradientEvaluator computes a full-image gradient for the current image,
// typically by delegating to a GradientSource tile by tile.
type GradientEvaluator interface {
	Compute(ctx context.Context, img *Image, target LayerTarget, tileSize int) (*Image, error)
}

// Ascender runs gradient ascent iterations on a single image at a single
// resolution and returns a new image of identical shape.
type Ascender interface {
	Ascend(ctx context.Context, img *Image, target LayerTarget, cfg AscentConfig) (*Image, error)
}

// Dreamer runs the full multi-octave optimization across a pyramid of
// image scales.
type Dreamer interface {
	Optimize(ctx context.Context, img *Image, target LayerTarget, cfg OctaveConfig) (*Image, error)
}

// Resizer rescales an image to an explicit target shape, preserving the
// channel count. Factor-based rescaling is expressed by the caller as a
// target shape.
type Resizer interface {
	Resize(img *Image, height, width int) (*Image, error)
}

// AscentConfig contains the per-call parameters for gradient ascent at one
// resolution. It is immutable for the duration of a call.
type AscentConfig struct {
	// Iterations is the fixed number of ascent steps to run.
	Iterations int

	// StepSize scales each update, after normalization against the
	// gradient's standard deviation.
	StepSize float64

	// TileSize is the nominal tile edge length, in pixels, used for tiled
	// gradient computation.
	TileSize int

	// PreserveColor restricts gradient smoothing to the spatial axes so
	// the original hue structure survives the ascent.
	PreserveColor bool

	// Verbose enables per-iteration diagnostics. Purely observational.
	Verbose bool
}

// OctaveConfig contains the parameters for multi-octave optimization.
type OctaveConfig struct {
	// Octaves is the number of recursive downscale levels. Zero runs the
	// ascent at the input resolution only.
	Octaves int

	// Rescale is the per-octave downscale factor, strictly between 0 and 1.
	Rescale float64

	// Blend is the fraction of the higher-resolution image retained when
	// mixing in the upscaled result from the octave below, in [0, 1].
	Blend float64

	// Ascent is applied unchanged at every octave level.
	Ascent AscentConfig
}
