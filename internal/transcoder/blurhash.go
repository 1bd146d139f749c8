package transcoder

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/buckket/go-blurhash"
	xdraw "golang.org/x/image/draw"
)

const (
	blurhashMaxSize     = 32 // downsample bound before encoding
	blurhashXComponents = 4
	blurhashYComponents = 3
)

// ComputeBlurhash downsamples an image file and encodes it as a
// compact blurhash placeholder string. Callers treat any failure as
// recoverable: the placeholder is a non-essential enhancement.
func ComputeBlurhash(imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := blurhash.Encode(blurhashXComponents, blurhashYComponents, downsample(img, blurhashMaxSize))
	if err != nil {
		return "", fmt.Errorf("failed to encode blurhash: %w", err)
	}
	return hash, nil
}

// downsample scales an image to fit within max pixels on its longer
// side, preserving aspect ratio. Blurhash encoding cost grows with
// input size and the hash only captures coarse structure, so encoding
// a full-size frame would be wasted work.
func downsample(img image.Image, max int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= max && h <= max {
		return img
	}

	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, bounds, xdraw.Over, nil)
	return small
}
