// Package gradient computes full-image activation gradients tile by tile,
// keeping the external model's peak memory bounded regardless of image size.
package gradient

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/LUCID/internal/dream"
	"github.com/copyleftdev/LUCID/internal/dream/tiles"
)

// eps guards the normalization division on near-constant tiles.
const eps = 1e-8

// Evaluator implements dream.GradientEvaluator by delegating to a
// dream.GradientSource one tile at a time and normalizing each tile's
// gradient by its own standard deviation, so tiles of differing contrast
// contribute equally.
type Evaluator struct {
	scheduler *tiles.Scheduler
	source    dream.GradientSource
}

// NewEvaluator creates an Evaluator around the given gradient source.
// A seed of zero seeds the tile jitter from the clock.
func NewEvaluator(source dream.GradientSource, seed int64) (*Evaluator, error) {
	if source == nil {
		return nil, dream.NewError("gradient source is required").
			WithComponent("gradient").WithOperation("NewEvaluator")
	}
	return &Evaluator{
		scheduler: tiles.NewScheduler(seed),
		source:    source,
	}, nil
}

// Compute returns the gradient of the mean target activation with respect
// to img, with the same shape as img. Every pixel of the returned buffer
// is written exactly once; failures from the gradient source propagate
// unchanged, with no retries.
func (e *Evaluator) Compute(ctx context.Context, img *dream.Image, target dream.LayerTarget, tileSize int) (*dream.Image, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, dream.NewError("image is required").
			WithComponent("gradient").WithOperation("Compute")
	}
	if !target.Valid() {
		return nil, dream.NewError("layer target is required").
			WithComponent("gradient").WithOperation("Compute")
	}

	tl, err := e.scheduler.Tiles(img.Height, img.Width, tileSize)
	if err != nil {
		return nil, err
	}

	buf := dream.NewImage(img.Height, img.Width, img.Channels)
	for _, tile := range tl {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sub := img.Region(tile.Row0, tile.Row1, tile.Col0, tile.Col1)
		g, err := e.source.Gradient(ctx, sub, target)
		if err != nil {
			return nil, dream.WrapErrorf(err, "gradient evaluation failed for tile [%d:%d,%d:%d]",
				tile.Row0, tile.Row1, tile.Col0, tile.Col1).
				WithComponent("gradient").WithOperation("Compute")
		}
		if !g.SameShape(sub) {
			return nil, dream.NewErrorf("gradient shape %dx%dx%d does not match tile %dx%dx%d",
				g.Height, g.Width, g.Channels, sub.Height, sub.Width, sub.Channels).
				WithComponent("gradient").WithOperation("Compute")
		}

		floats.Scale(1/(stat.PopStdDev(g.Data, nil)+eps), g.Data)
		buf.SetRegion(tile.Row0, tile.Col0, g)
	}
	return buf, nil
}
