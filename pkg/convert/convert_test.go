/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a w×h PNG with a red/blue checker so grayscale and
// resize effects are observable.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeDims(t *testing.T, blob []byte) (format string, w, h int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob))
	require.NoError(t, err)
	return format, cfg.Width, cfg.Height
}

func TestParseParamsDefaults(t *testing.T) {
	p := ParseParams(url.Values{})
	assert.Equal(t, Params{Proportion: 1}, p)
	assert.True(t, p.IsIdentity())

	p = ParseParams(url.Values{"w": {"50"}, "q": {"notanumber"}})
	assert.Equal(t, Params{Width: 50, Proportion: 1}, p)
}

func TestCanonicalEquivalence(t *testing.T) {
	// Width wins under proportional resize; the height is dropped
	// from the canonical form so both URLs share one variant.
	a := Params{Width: 50, Height: 70, Proportion: 1}.Canonical()
	b := Params{Width: 50}.Canonical()
	assert.Equal(t, a, b)
	assert.Equal(t, a.Tag(), b.Tag())

	// p is meaningless without dimensions.
	c := Params{Proportion: 0, Gray: 1}.Canonical()
	d := Params{Proportion: 1, Gray: 1}.Canonical()
	assert.Equal(t, c.Tag(), d.Tag())
}

func TestTagAndKey(t *testing.T) {
	fp := "0123456789abcdef0123456789abcdef"
	p := Params{Width: 100, Proportion: 1, Gray: 1}
	assert.Equal(t, "100*0_p1_g1_x0_y0_q0", p.Tag())
	assert.Equal(t, fp+":100*0_p1_g1_x0_y0_q0", p.Key(fp))

	assert.Equal(t, fp, Params{}.Key(fp), "identity keys to the original")
	assert.Equal(t, fp, Params{Proportion: 0}.Key(fp))
}

func TestApplyReencodesToJPEG(t *testing.T) {
	src := pngBytes(t, 10, 10)
	out, err := Apply(src, Params{})
	require.NoError(t, err)
	format, w, h := decodeDims(t, out)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}

func TestApplyDeterministic(t *testing.T) {
	src := pngBytes(t, 16, 8)
	p := Params{Width: 8, Proportion: 1, Gray: 1}
	a, err := Apply(src, p)
	require.NoError(t, err)
	b, err := Apply(src, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestApplyProportionalResize(t *testing.T) {
	src := pngBytes(t, 40, 20)

	out, err := Apply(src, Params{Width: 10, Proportion: 1})
	require.NoError(t, err)
	_, w, h := decodeDims(t, out)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h, "aspect ratio preserved")

	out, err = Apply(src, Params{Height: 10, Proportion: 1})
	require.NoError(t, err)
	_, w, h = decodeDims(t, out)
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
}

func TestApplyNeverUpscales(t *testing.T) {
	src := pngBytes(t, 10, 10)

	for _, p := range []Params{
		{Width: 100, Proportion: 1},
		{Height: 100, Proportion: 1},
		{Width: 100, Height: 100, Proportion: 0},
	} {
		out, err := Apply(src, p)
		require.NoError(t, err)
		_, w, h := decodeDims(t, out)
		assert.Equal(t, 10, w, "%+v", p)
		assert.Equal(t, 10, h, "%+v", p)
	}
}

func TestApplyStretch(t *testing.T) {
	src := pngBytes(t, 40, 20)
	out, err := Apply(src, Params{Width: 10, Height: 10, Proportion: 0})
	require.NoError(t, err)
	_, w, h := decodeDims(t, out)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}

func TestApplyGrayscale(t *testing.T) {
	src := pngBytes(t, 8, 8)
	out, err := Apply(src, Params{Gray: 1})
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// JPEG is lossy; channels of a gray pixel stay close.
			assert.InDelta(t, float64(r), float64(g), 2500)
			assert.InDelta(t, float64(g), float64(bl), 2500)
		}
	}
}

func TestApplyGIFPassthrough(t *testing.T) {
	src := gifBytes(t)
	out, err := Apply(src, Params{Width: 2, Proportion: 1, Gray: 1})
	require.NoError(t, err)
	assert.Equal(t, src, out, "GIF originals are served byte-identical")
}

func TestApplyDecodeError(t *testing.T) {
	_, err := Apply([]byte("not an image"), Params{Width: 5})
	assert.Error(t, err)
}
