package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/LUCID/internal/dream"
)

// pngBytes encodes a small synthetic PNG for decode tests.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 7 % 256),
				G: uint8(y * 11 % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeShapeAndRange(t *testing.T) {
	img, err := Decode(bytes.NewReader(pngBytes(t, 20, 12)))
	require.NoError(t, err)

	assert.Equal(t, 12, img.Height)
	assert.Equal(t, 20, img.Width)
	assert.Equal(t, 3, img.Channels)
	for _, v := range img.Data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 255.0)
	}
}

func TestDecodeLimitCapsLongestSide(t *testing.T) {
	img, err := DecodeLimit(bytes.NewReader(pngBytes(t, 100, 40)), 50)
	require.NoError(t, err)

	assert.Equal(t, 50, img.Width)
	assert.Equal(t, 20, img.Height)
}

func TestDecodeLimitNoResizeWhenWithinCap(t *testing.T) {
	img, err := DecodeLimit(bytes.NewReader(pngBytes(t, 30, 30)), 50)
	require.NoError(t, err)

	assert.Equal(t, 30, img.Width)
	assert.Equal(t, 30, img.Height)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := dream.NewImage(8, 8, 3)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(y, x, 0, float64(x*30))
			src.Set(y, x, 1, float64(y*30))
			src.Set(y, x, 2, 100)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, src))

	back, err := Decode(&buf)
	require.NoError(t, err)
	require.True(t, src.SameShape(back))
	for i := range src.Data {
		assert.InDelta(t, src.Data[i], back.Data[i], 0.5, "index %d", i)
	}
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	src := dream.NewImage(2, 2, 3)
	src.Set(0, 0, 0, -500)
	src.Set(1, 1, 2, 9000)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, src))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0.0, back.At(0, 0, 0))
	assert.Equal(t, 255.0, back.At(1, 1, 2))
}

func TestEncodeRejectsUnsupportedChannels(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, EncodePNG(&buf, dream.NewImage(4, 4, 2)))
	assert.Error(t, EncodePNG(&buf, nil))
}

func TestResizeTargetShape(t *testing.T) {
	r := BilinearResizer{}
	img := dream.RampImage(40, 60, 3)

	for _, sh := range [][2]int{{20, 30}, {80, 120}, {1, 1}, {40, 60}, {13, 77}} {
		out, err := r.Resize(img, sh[0], sh[1])
		require.NoError(t, err)
		assert.Equal(t, sh[0], out.Height)
		assert.Equal(t, sh[1], out.Width)
		assert.Equal(t, 3, out.Channels)
	}
}

func TestResizeIdentity(t *testing.T) {
	r := BilinearResizer{}
	img := dream.RampImage(16, 16, 3)

	out, err := r.Resize(img, 16, 16)
	require.NoError(t, err)
	assert.Equal(t, img.Data, out.Data)
}

func TestResizePreservesConstant(t *testing.T) {
	r := BilinearResizer{}
	img := dream.ConstantImage(32, 32, 3, -1234.5)

	out, err := r.Resize(img, 11, 47)
	require.NoError(t, err)
	for i, v := range out.Data {
		require.InDelta(t, -1234.5, v, 1e-9, "index %d", i)
	}
}

func TestResizeDoesNotClamp(t *testing.T) {
	img := dream.ConstantImage(8, 8, 3, 1e6)
	out, err := BilinearResizer{}.Resize(img, 4, 4)
	require.NoError(t, err)
	assert.InDelta(t, 1e6, out.At(0, 0, 0), 1e-3)
}

func TestResizeInvalidInput(t *testing.T) {
	r := BilinearResizer{}
	img := dream.RampImage(8, 8, 3)

	_, err := r.Resize(img, 0, 8)
	assert.Error(t, err)

	_, err = r.Resize(nil, 8, 8)
	assert.Error(t, err)
}
