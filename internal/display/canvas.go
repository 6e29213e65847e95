package display

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	Width  = 128
	Height = 64
)

// Drawer pushes an image to a panel; *ssd1306.Dev satisfies it.
type Drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Canvas is a 1-bit frame buffer in the SSD1306 page layout.
type Canvas struct {
	img  *image1bit.VerticalLSB
	face font.Face
	out  Drawer
}

// NewCanvas renders into a 128x64 buffer and, when out is non-nil, sends
// it there on Show.
func NewCanvas(out Drawer) *Canvas {
	return &Canvas{
		img:  image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height)),
		face: basicfont.Face7x13,
		out:  out,
	}
}

func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// Text draws s with its top-left corner near (x, y). The baseline sits 8px
// below y, where an 8x8 cell font would put it.
func (c *Canvas) Text(s string, x, y int) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(image1bit.On),
		Face: c.face,
		Dot:  fixed.P(x, y+8),
	}
	d.DrawString(s)
}

func (c *Canvas) Show() error {
	if c.out == nil {
		return nil
	}
	return c.out.Draw(c.img.Bounds(), c.img, image.Point{})
}

// Image is the current frame buffer.
func (c *Canvas) Image() image.Image { return c.img }

// Lit counts the pixels that are on.
func (c *Canvas) Lit() int {
	n := 0
	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c.img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}
