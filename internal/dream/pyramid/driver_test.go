package pyramid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/LUCID/internal/dream"
)

var testTarget = dream.LayerTarget{Layer: "band1"}

// recordingAscender captures every image handed to Ascend and returns it
// unchanged (identity ascent) unless Fn overrides that.
type recordingAscender struct {
	calls  int
	inputs []*dream.Image
	fn     func(img *dream.Image) (*dream.Image, error)
}

func (a *recordingAscender) Ascend(_ context.Context, img *dream.Image, _ dream.LayerTarget, _ dream.AscentConfig) (*dream.Image, error) {
	a.calls++
	a.inputs = append(a.inputs, img.Clone())
	if a.fn != nil {
		return a.fn(img)
	}
	return img.Clone(), nil
}

func testDriver(t *testing.T, asc dream.Ascender, res dream.Resizer) *Driver {
	t.Helper()
	d, err := NewDriver(asc, res, nil)
	require.NoError(t, err)
	return d
}

func testConfig(octaves int) dream.OctaveConfig {
	return dream.OctaveConfig{
		Octaves: octaves,
		Rescale: 0.7,
		Blend:   0.2,
		Ascent:  dream.AscentConfig{Iterations: 2, StepSize: 1.0, TileSize: 16},
	}
}

func TestNewDriver(t *testing.T) {
	_, err := NewDriver(nil, &dream.NearestResizer{}, nil)
	assert.Error(t, err)

	_, err = NewDriver(&recordingAscender{}, nil, nil)
	assert.Error(t, err)

	d, err := NewDriver(&recordingAscender{}, &dream.NearestResizer{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestOptimizeZeroOctavesMatchesAscendDirectly(t *testing.T) {
	asc := &recordingAscender{}
	res := &dream.NearestResizer{}
	d := testDriver(t, asc, res)

	img := dream.RampImage(32, 32, 3)
	out, err := d.Optimize(context.Background(), img, testTarget, testConfig(0))
	require.NoError(t, err)

	assert.Equal(t, 1, asc.calls)
	assert.Equal(t, 0, res.Calls, "no resizes at octave zero")
	assert.Equal(t, img.Data, asc.inputs[0].Data, "ascend must see the original image untouched")
	assert.Equal(t, img.Data, out.Data)
}

func TestOptimizeCallCounts(t *testing.T) {
	asc := &recordingAscender{}
	res := &dream.NearestResizer{}
	d := testDriver(t, asc, res)

	img := dream.RampImage(64, 64, 3)
	_, err := d.Optimize(context.Background(), img, testTarget, testConfig(3))
	require.NoError(t, err)

	assert.Equal(t, 4, asc.calls, "one ascent per level")
	assert.Equal(t, 6, res.Calls, "three downscales and three upscales")
}

func TestOptimizeCoarsestLevelFirst(t *testing.T) {
	asc := &recordingAscender{}
	d := testDriver(t, asc, &dream.NearestResizer{})

	img := dream.RampImage(100, 100, 3)
	_, err := d.Optimize(context.Background(), img, testTarget, testConfig(2))
	require.NoError(t, err)

	require.Len(t, asc.inputs, 3)
	for i := 1; i < len(asc.inputs); i++ {
		assert.Greater(t, asc.inputs[i].Height, asc.inputs[i-1].Height,
			"levels must run coarsest to finest")
	}
}

func TestOptimizePreservesShape(t *testing.T) {
	shapes := []struct {
		height, width, octaves int
		rescale                float64
	}{
		{64, 64, 3, 0.7},
		{101, 67, 4, 0.5},
		{33, 97, 2, 0.9},
		{16, 16, 5, 0.3},
	}

	for _, sh := range shapes {
		asc := &recordingAscender{}
		d := testDriver(t, asc, &dream.NearestResizer{})

		cfg := testConfig(sh.octaves)
		cfg.Rescale = sh.rescale

		img := dream.RampImage(sh.height, sh.width, 3)
		out, err := d.Optimize(context.Background(), img, testTarget, cfg)
		require.NoError(t, err)
		assert.Equal(t, sh.height, out.Height)
		assert.Equal(t, sh.width, out.Width)
		assert.Equal(t, 3, out.Channels)
	}
}

func TestOptimizeFullBlendDiscardsCoarseResult(t *testing.T) {
	// With blend=1.0 and an identity ascent, the blended input at the top
	// level must equal the original image: the upscaled lower-octave
	// contribution is fully discarded.
	asc := &recordingAscender{}
	d := testDriver(t, asc, &dream.NearestResizer{})

	cfg := testConfig(1)
	cfg.Blend = 1.0

	img := dream.RampImage(40, 40, 3)
	_, err := d.Optimize(context.Background(), img, testTarget, cfg)
	require.NoError(t, err)

	require.Len(t, asc.inputs, 2)
	top := asc.inputs[1]
	for i := range img.Data {
		require.InDelta(t, img.Data[i], top.Data[i], 1e-9, "index %d", i)
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	asc := &recordingAscender{}
	d := testDriver(t, asc, &dream.NearestResizer{})

	img := dream.RampImage(48, 48, 3)
	orig := img.Clone()

	_, err := d.Optimize(context.Background(), img, testTarget, testConfig(2))
	require.NoError(t, err)
	assert.Equal(t, orig.Data, img.Data)
}

func TestOptimizeContractViolations(t *testing.T) {
	d := testDriver(t, &recordingAscender{}, &dream.NearestResizer{})
	img := dream.RampImage(16, 16, 3)

	tests := []struct {
		name   string
		mutate func(*dream.OctaveConfig)
	}{
		{"negative octaves", func(c *dream.OctaveConfig) { c.Octaves = -1 }},
		{"zero rescale", func(c *dream.OctaveConfig) { c.Rescale = 0 }},
		{"rescale of one", func(c *dream.OctaveConfig) { c.Rescale = 1.0 }},
		{"rescale above one", func(c *dream.OctaveConfig) { c.Rescale = 1.5 }},
		{"negative blend", func(c *dream.OctaveConfig) { c.Blend = -0.1 }},
		{"blend above one", func(c *dream.OctaveConfig) { c.Blend = 1.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(2)
			tt.mutate(&cfg)
			_, err := d.Optimize(context.Background(), img, testTarget, cfg)
			assert.Error(t, err)
		})
	}

	_, err := d.Optimize(context.Background(), nil, testTarget, testConfig(1))
	assert.Error(t, err)

	_, err = d.Optimize(context.Background(), img, dream.LayerTarget{}, testConfig(1))
	assert.Error(t, err)
}

func TestOptimizeCancelledContext(t *testing.T) {
	d := testDriver(t, &recordingAscender{}, &dream.NearestResizer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := dream.RampImage(16, 16, 3)
	_, err := d.Optimize(ctx, img, testTarget, testConfig(2))
	assert.ErrorIs(t, err, context.Canceled)
}
