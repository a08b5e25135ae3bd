package render

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var titleFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
})

// drawTitle renders s with its baseline at (x, y) in the Go Regular face.
func drawTitle(dst draw.Image, s string, x, y int, size float64) error {
	f, err := titleFont()
	if err != nil {
		return fmt.Errorf("failed to parse title font: %w", err)
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(dst.Bounds())
	c.SetDst(dst)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)
	if _, err := c.DrawString(s, freetype.Pt(x, y)); err != nil {
		return fmt.Errorf("failed to draw title: %w", err)
	}
	return nil
}

// drawLabel renders s with the fixed 7x13 face. Used for colour bar ticks.
func drawLabel(dst draw.Image, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
