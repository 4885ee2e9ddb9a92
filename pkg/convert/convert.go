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

// Package convert is the pure transform engine: decoded original in,
// derived variant bytes out. Same input, same output; no I/O.
package convert // import "zimg.org/pkg/convert"

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// WAPQuality is the hard ceiling on JPEG encode quality. Explicit q
// requests are clamped to it; it is also the default.
const WAPQuality = 75

// gifHeader marks originals that are served byte-identical: animated
// GIFs are never re-rendered.
var gifHeader = []byte("GIF8")

// IsGIF reports whether blob is a GIF original.
func IsGIF(blob []byte) bool {
	return bytes.HasPrefix(blob, gifHeader)
}

// Apply renders the variant of the original blob described by p and
// returns the encoded bytes. Output is JPEG, except GIF sources, which
// pass through unmodified whatever p says.
//
// Operation order is fixed: resize, grayscale, quality clamp, format
// normalize. Images are never upscaled.
func Apply(blob []byte, p Params) ([]byte, error) {
	if IsGIF(blob) {
		return blob, nil
	}
	p = p.Canonical()

	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.Wrap(err, "convert: decode")
	}

	img = resize(img, p)
	if p.Gray == 1 {
		img = imaging.Grayscale(img)
	}

	q := WAPQuality
	if p.Quality > 0 && p.Quality < WAPQuality {
		q = p.Quality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, errors.Wrap(err, "convert: encode")
	}
	return buf.Bytes(), nil
}

func resize(img image.Image, p Params) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	if p.Proportion == 1 {
		// One axis honored, aspect ratio preserved. A target larger
		// than the source is a no-op.
		switch {
		case p.Width != 0:
			if srcW <= p.Width {
				return img
			}
			return imaging.Resize(img, p.Width, 0, imaging.Lanczos)
		case p.Height != 0:
			if srcH <= p.Height {
				return img
			}
			return imaging.Resize(img, 0, p.Height, imaging.Lanczos)
		}
		return img
	}

	// Free resize: both axes honored, still never upscaling.
	w, h := p.Width, p.Height
	if w == 0 || w > srcW {
		w = srcW
	}
	if h == 0 || h > srcH {
		h = srcH
	}
	if w == srcW && h == srcH {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
