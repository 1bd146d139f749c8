package transcoder

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, jpeg.Encode(file, img, nil))
}

func TestComputeBlurhash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	writeTestJPEG(t, path, 320, 180)

	hash, err := ComputeBlurhash(path)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestComputeBlurhashSmallImage(t *testing.T) {
	// images already inside the downsample bound are encoded as-is
	path := filepath.Join(t.TempDir(), "tiny.jpg")
	writeTestJPEG(t, path, 16, 9)

	hash, err := ComputeBlurhash(path)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestComputeBlurhashMissingFile(t *testing.T) {
	_, err := ComputeBlurhash(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}

func TestComputeBlurhashNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := ComputeBlurhash(path)
	assert.Error(t, err)
}

func TestDownsample(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	small := downsample(img, 32)

	bounds := small.Bounds()
	assert.Equal(t, 32, bounds.Dx())
	assert.Equal(t, 18, bounds.Dy())

	// already small enough: returned unchanged
	tiny := image.NewRGBA(image.Rect(0, 0, 20, 10))
	assert.Equal(t, tiny, downsample(tiny, 32))
}
