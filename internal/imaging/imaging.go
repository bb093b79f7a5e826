// Package imaging implements the image utilities collaborator: decoding
// uploads into float images, encoding results back out, and rescaling.
package imaging

import (
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/copyleftdev/LUCID/internal/dream"
)

// DecodeLimit decodes a PNG or JPEG stream into a float64 image with
// values in [0, 255]. If maxDim is positive and the longest side exceeds
// it, the decoded image is scaled down to fit before conversion.
func DecodeLimit(r io.Reader, maxDim int) (*dream.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, dream.WrapError(err, "failed to decode image").
			WithComponent("imaging").WithOperation("DecodeLimit")
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return nil, dream.NewError("image is empty").
			WithComponent("imaging").WithOperation("DecodeLimit")
	}

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
		bounds = dst.Bounds()
	}

	out := dream.NewImage(h, w, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(y, x, 0, float64(r16>>8))
			out.Set(y, x, 1, float64(g16>>8))
			out.Set(y, x, 2, float64(b16>>8))
		}
	}
	return out, nil
}

// Decode is DecodeLimit without a dimension cap.
func Decode(r io.Reader) (*dream.Image, error) {
	return DecodeLimit(r, 0)
}

// EncodePNG clamps img to [0, 255] and writes it as an 8-bit PNG. Only
// one- and three-channel images are supported.
func EncodePNG(w io.Writer, img *dream.Image) error {
	if img == nil || len(img.Data) == 0 {
		return dream.NewError("image is required").
			WithComponent("imaging").WithOperation("EncodePNG")
	}
	if img.Channels != 1 && img.Channels != 3 {
		return dream.NewErrorf("unsupported channel count %d", img.Channels).
			WithComponent("imaging").WithOperation("EncodePNG")
	}

	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var r, g, b uint8
			if img.Channels == 1 {
				v := clampByte(img.At(y, x, 0))
				r, g, b = v, v, v
			} else {
				r = clampByte(img.At(y, x, 0))
				g = clampByte(img.At(y, x, 1))
				b = clampByte(img.At(y, x, 2))
			}
			dst.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	if err := png.Encode(w, dst); err != nil {
		return dream.WrapError(err, "failed to encode image").
			WithComponent("imaging").WithOperation("EncodePNG")
	}
	return nil
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
