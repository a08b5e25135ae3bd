// Package animate encodes a sequence of rendered frame images into an
// animated GIF or an MJPEG AVI.
package animate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/icza/mjpeg"
	"github.com/vk/pctransport/internal/ctxlog"
)

// DefaultDelay is the GIF frame delay in hundredths of a second.
const DefaultDelay = 10

// ErrNoFrames is returned when an animation is requested without frames.
var ErrNoFrames = errors.New("no frames to animate")

// loadFrames opens every file and resizes it to the size of the first one.
func loadFrames(ctx context.Context, paths []string, each func(i int, img image.Image) error) error {
	if len(paths) == 0 {
		return ErrNoFrames
	}
	var size image.Point
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := imgio.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open frame '%s': %w", p, err)
		}
		if i == 0 {
			size = img.Bounds().Size()
		} else if img.Bounds().Size() != size {
			img = transform.Resize(img, size.X, size.Y, transform.Linear)
		}
		if err := each(i, img); err != nil {
			return err
		}
	}
	return nil
}

// GIF writes the frames at paths, in order, as a looping animated GIF.
// delay is in hundredths of a second; non-positive means DefaultDelay.
func GIF(ctx context.Context, path string, frames []string, delay int) error {
	if delay <= 0 {
		delay = DefaultDelay
	}
	anim := &gif.GIF{LoopCount: 0}
	err := loadFrames(ctx, frames, func(_ int, img image.Image) error {
		b := img.Bounds()
		pal := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, pal.Bounds(), img, b.Min)
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, delay)
		return nil
	})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create GIF '%s': %w", path, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode GIF: %w", err)
	}
	ctxlog.FromContext(ctx).Info("GIF saved.", "path", path, "frames", len(anim.Image))
	return f.Close()
}

// AVI writes the frames as a Motion-JPEG AVI at fps frames per second.
func AVI(ctx context.Context, path string, frames []string, fps int) error {
	if fps <= 0 {
		fps = 1
	}
	var (
		w   mjpeg.AviWriter
		buf bytes.Buffer
	)
	err := loadFrames(ctx, frames, func(i int, img image.Image) error {
		if i == 0 {
			b := img.Bounds()
			var err error
			w, err = mjpeg.New(path, int32(b.Dx()), int32(b.Dy()), int32(fps))
			if err != nil {
				return fmt.Errorf("failed to create AVI '%s': %w", path, err)
			}
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return fmt.Errorf("failed to encode AVI frame %d: %w", i, err)
		}
		if err := w.AddFrame(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to add AVI frame %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		if w != nil {
			w.Close()
		}
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize AVI '%s': %w", path, err)
	}
	ctxlog.FromContext(ctx).Info("AVI saved.", "path", path, "frames", len(frames), "fps", fps)
	return nil
}

// FPS converts a GIF delay into the nearest whole frame rate, at least 1.
func FPS(delay int) int {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return max(1, (100+delay/2)/delay)
}
