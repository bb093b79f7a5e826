package pyramid

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/LUCID/internal/dream"
	"github.com/copyleftdev/LUCID/internal/dream/ascent"
	"github.com/copyleftdev/LUCID/internal/dream/gradient"
	"github.com/copyleftdev/LUCID/internal/imaging"
	"github.com/copyleftdev/LUCID/internal/model"
)

// TestFullPipeline runs the real component stack end to end: band-pass
// gradient source, tiled evaluator, ascent optimizer, octave driver, and
// the bilinear resizer.
func TestFullPipeline(t *testing.T) {
	evaluator, err := gradient.NewEvaluator(model.NewBandpassSource(), 1234)
	require.NoError(t, err)

	optimizer, err := ascent.NewOptimizer(evaluator, nil)
	require.NoError(t, err)

	driver, err := NewDriver(optimizer, imaging.BilinearResizer{}, nil)
	require.NoError(t, err)

	// A textured input so the band-pass response is non-trivial.
	img := dream.NewImage(64, 64, 3)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := 128 + 60*math.Sin(float64(x)/3)*math.Cos(float64(y)/5)
			for c := 0; c < 3; c++ {
				img.Set(y, x, c, v)
			}
		}
	}

	out, err := driver.Optimize(context.Background(), img, dream.LayerTarget{Layer: "band1"}, dream.OctaveConfig{
		Octaves: 2,
		Rescale: 0.6,
		Blend:   0.2,
		Ascent: dream.AscentConfig{
			Iterations:    3,
			StepSize:      2.0,
			TileSize:      32,
			PreserveColor: true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 64, out.Height)
	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 3, out.Channels)

	changed := false
	for i, v := range out.Data {
		require.False(t, math.IsNaN(v), "NaN at index %d", i)
		require.False(t, math.IsInf(v, 0), "Inf at index %d", i)
		if math.Abs(v-img.Data[i]) > 1e-9 {
			changed = true
		}
	}
	assert.True(t, changed, "optimization must amplify structure")
}
