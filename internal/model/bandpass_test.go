package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/LUCID/internal/dream"
)

func TestLayers(t *testing.T) {
	src := NewBandpassSource()
	assert.Equal(t, []string{"band0", "band1", "band2", "band3"}, src.Layers())
}

func TestGradientShapeAndDeterminism(t *testing.T) {
	src := NewBandpassSource()
	tile := dream.RampImage(24, 31, 3)
	target := dream.LayerTarget{Layer: "band1"}

	g1, err := src.Gradient(context.Background(), tile, target)
	require.NoError(t, err)
	assert.Equal(t, tile.Height, g1.Height)
	assert.Equal(t, tile.Width, g1.Width)
	assert.Equal(t, tile.Channels, g1.Channels)

	g2, err := src.Gradient(context.Background(), tile, target)
	require.NoError(t, err)
	assert.Equal(t, g1.Data, g2.Data)
}

func TestGradientFlatTileIsZero(t *testing.T) {
	src := NewBandpassSource()
	tile := dream.ConstantImage(16, 16, 3, 42)

	g, err := src.Gradient(context.Background(), tile, dream.LayerTarget{Layer: "band2"})
	require.NoError(t, err)
	for i, v := range g.Data {
		require.InDelta(t, 0, v, 1e-9, "index %d", i)
	}
}

func TestGradientRespondsToStructure(t *testing.T) {
	src := NewBandpassSource()
	tile := dream.NewImage(32, 32, 3)
	// A bright square in the middle.
	for y := 12; y < 20; y++ {
		for x := 12; x < 20; x++ {
			for c := 0; c < 3; c++ {
				tile.Set(y, x, c, 255)
			}
		}
	}

	g, err := src.Gradient(context.Background(), tile, dream.LayerTarget{Layer: "band1"})
	require.NoError(t, err)

	nonzero := 0
	for _, v := range g.Data {
		if v != 0 {
			nonzero++
		}
	}
	assert.Greater(t, nonzero, 0)
}

func TestGradientChannelMask(t *testing.T) {
	src := NewBandpassSource()
	tile := dream.RampImage(16, 16, 3)
	target := dream.LayerTarget{Layer: "band0", ChanLo: 1, ChanHi: 2}

	g, err := src.Gradient(context.Background(), tile, target)
	require.NoError(t, err)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			assert.Zero(t, g.At(y, x, 0))
			assert.Zero(t, g.At(y, x, 2))
		}
	}
}

func TestGradientErrors(t *testing.T) {
	src := NewBandpassSource()
	tile := dream.RampImage(8, 8, 3)

	_, err := src.Gradient(context.Background(), nil, dream.LayerTarget{Layer: "band0"})
	assert.Error(t, err)

	_, err = src.Gradient(context.Background(), tile, dream.LayerTarget{Layer: "conv7"})
	assert.Error(t, err)

	_, err = src.Gradient(context.Background(), tile, dream.LayerTarget{Layer: "band0", ChanLo: 2, ChanHi: 9})
	assert.Error(t, err)
}
