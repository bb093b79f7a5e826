// Package pyramid drives gradient ascent across a recursive multi-octave
// image pyramid: solve at the coarsest scale first, then blend each result
// back up toward the original resolution so large-scale patterns emerge
// instead of fine-grained noise.
package pyramid

import (
	"context"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/LUCID/internal/dream"
	"github.com/copyleftdev/LUCID/internal/dream/filter"
)

// downscaleSigma is the spatial pre-blur applied before every downscale to
// suppress aliasing. The channel axis is never blurred here.
const downscaleSigma = 0.5

// Driver implements dream.Dreamer.
type Driver struct {
	ascender dream.Ascender
	resizer  dream.Resizer
	logger   *zap.Logger
}

// NewDriver creates a Driver. A nil logger disables diagnostics.
func NewDriver(ascender dream.Ascender, resizer dream.Resizer, logger *zap.Logger) (*Driver, error) {
	if ascender == nil {
		return nil, dream.NewError("ascender is required").
			WithComponent("pyramid").WithOperation("NewDriver")
	}
	if resizer == nil {
		return nil, dream.NewError("resizer is required").
			WithComponent("pyramid").WithOperation("NewDriver")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{ascender: ascender, resizer: resizer, logger: logger}, nil
}

// Optimize runs the recursive multi-octave optimization and returns an
// image with the exact shape of img. The input is never mutated. Recursion
// depth is cfg.Octaves+1 ascents; each level above the coarsest receives a
// convex blend of its own image and the upscaled result from below.
func (d *Driver) Optimize(ctx context.Context, img *dream.Image, target dream.LayerTarget, cfg dream.OctaveConfig) (*dream.Image, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, dream.NewError("image is required").
			WithComponent("pyramid").WithOperation("Optimize")
	}
	if !target.Valid() {
		return nil, dream.NewError("layer target is required").
			WithComponent("pyramid").WithOperation("Optimize")
	}
	if cfg.Octaves < 0 {
		return nil, dream.NewErrorf("octave count must be non-negative, got %d", cfg.Octaves).
			WithComponent("pyramid").WithOperation("Optimize")
	}
	if cfg.Rescale <= 0 || cfg.Rescale >= 1 {
		return nil, dream.NewErrorf("rescale factor must be in (0,1), got %v", cfg.Rescale).
			WithComponent("pyramid").WithOperation("Optimize")
	}
	if cfg.Blend < 0 || cfg.Blend > 1 {
		return nil, dream.NewErrorf("blend must be in [0,1], got %v", cfg.Blend).
			WithComponent("pyramid").WithOperation("Optimize")
	}

	return d.optimize(ctx, img, target, cfg, cfg.Octaves)
}

func (d *Driver) optimize(ctx context.Context, img *dream.Image, target dream.LayerTarget, cfg dream.OctaveConfig, octaves int) (*dream.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if octaves == 0 {
		return d.ascender.Ascend(ctx, img, target, cfg.Ascent)
	}

	dh := scaled(img.Height, cfg.Rescale)
	dw := scaled(img.Width, cfg.Rescale)

	d.logger.Debug("descending octave",
		zap.Int("level", octaves),
		zap.Int("height", dh),
		zap.Int("width", dw),
	)

	down, err := d.resizer.Resize(filter.Gaussian(img, downscaleSigma, false), dh, dw)
	if err != nil {
		return nil, dream.WrapError(err, "downscale failed").
			WithComponent("pyramid").WithOperation("Optimize")
	}

	rec, err := d.optimize(ctx, down, target, cfg, octaves-1)
	if err != nil {
		return nil, err
	}

	up, err := d.resizer.Resize(rec, img.Height, img.Width)
	if err != nil {
		return nil, dream.WrapError(err, "upscale failed").
			WithComponent("pyramid").WithOperation("Optimize")
	}

	// blend*img + (1-blend)*up: a fraction of the high-resolution detail
	// survives alongside the pattern carried up from the octave below.
	blended := img.Clone()
	floats.Scale(cfg.Blend, blended.Data)
	floats.AddScaled(blended.Data, 1-cfg.Blend, up.Data)

	return d.ascender.Ascend(ctx, blended, target, cfg.Ascent)
}

// scaled applies the rescale factor to one axis, with a floor of one pixel.
func scaled(n int, factor float64) int {
	s := int(float64(n) * factor)
	if s < 1 {
		s = 1
	}
	return s
}
