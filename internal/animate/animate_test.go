package animate

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrames(t *testing.T, dir string, sizes ...image.Point) []string {
	t.Helper()
	var paths []string
	for i, sz := range sizes {
		img := image.NewRGBA(image.Rect(0, 0, sz.X, sz.Y))
		for y := 0; y < sz.Y; y++ {
			for x := 0; x < sz.X; x++ {
				img.Set(x, y, color.RGBA{R: uint8(40 * i), G: 100, B: 200, A: 255})
			}
		}
		p := filepath.Join(dir, string(rune('0'+i))+".png")
		f, err := os.Create(p)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		paths = append(paths, p)
	}
	return paths
}

func TestGIF(t *testing.T) {
	t.Parallel()
	// Arrange
	dir := t.TempDir()
	frames := writeFrames(t, dir, image.Pt(20, 10), image.Pt(20, 10), image.Pt(40, 20))
	out := filepath.Join(dir, "substrate.gif")

	// Act
	err := GIF(context.Background(), out, frames, 0)

	// Assert
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, []int{DefaultDelay, DefaultDelay, DefaultDelay}, anim.Delay)
	for _, img := range anim.Image {
		assert.Equal(t, image.Pt(20, 10), img.Bounds().Size(), "frames are resized to the first")
	}
}

func TestGIF_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	err := GIF(context.Background(), filepath.Join(dir, "a.gif"), nil, 5)
	require.ErrorIs(t, err, ErrNoFrames)

	err = GIF(context.Background(), filepath.Join(dir, "b.gif"), []string{filepath.Join(dir, "missing.png")}, 5)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "b.gif"))
}

func TestGIF_Cancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	frames := writeFrames(t, dir, image.Pt(4, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := GIF(ctx, filepath.Join(dir, "c.gif"), frames, 5)

	require.ErrorIs(t, err, context.Canceled)
}

func TestAVI(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	frames := writeFrames(t, dir, image.Pt(16, 16), image.Pt(16, 16))
	out := filepath.Join(dir, "substrate.avi")

	require.NoError(t, AVI(context.Background(), out, frames, FPS(10)))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("RIFF")))
	assert.Equal(t, []byte("AVI "), data[8:12])
}

func TestFPS(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 10, FPS(10))
	assert.Equal(t, 10, FPS(0))
	assert.Equal(t, 4, FPS(25))
	assert.Equal(t, 1, FPS(500))
}
