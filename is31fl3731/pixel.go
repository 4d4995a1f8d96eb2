package is31fl3731

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
)

const (
	// Width and Height are the dimensions of the physical LED grid.
	Width  = 16
	Height = 8
)

// Pixel is one grayscale point to draw.
type Pixel struct {
	Point image.Point
	Color color.Gray
}

// PixelOffset returns the PWM table offset of the LED at (x, y) on the 16x8
// grid. The mapping follows the board wiring: the right half is mirrored and
// stacked below the left half, then rows and columns are swapped.
//
// Coordinates outside [0,15]x[0,7] are not checked and land on unrelated
// registers.
func PixelOffset(x, y int16) uint8 {
	if x > 7 {
		x = 15 - x
		y += 8
	} else {
		y = 7 - y
	}
	x, y = y, x
	return uint8(x + y*16)
}

// DrawPixel sets the intensity of the LED at (x, y) in the current frame.
func (d *Dev) DrawPixel(x, y int16, c uint8) error {
	return d.writeRegister(d.frame, regPWM+PixelOffset(x, y), c)
}

// DrawPixels draws each pixel in order and stops at the first bus error.
func (d *Dev) DrawPixels(pixels []Pixel) error {
	for _, p := range pixels {
		if err := d.DrawPixel(int16(p.Point.X), int16(p.Point.Y), p.Color.Y); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the canvas size reported to drawing callers: 15x7. The
// addressable grid is Width x Height (16x8); the reported size is kept one
// short in each direction for compatibility with existing callers.
func (d *Dev) Size() image.Point {
	return image.Point{X: Width - 1, Y: Height - 1}
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer. It reports Size.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: d.Size()}
}

// Draw implements display.Drawer.
//
// Pixels of src starting at sp are converted to gray and written into
// dstRect of the current frame, one register write per pixel. dstRect is
// clipped to the full 16x8 grid, not to Bounds.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	r := dstRect.Intersect(image.Rect(0, 0, Width, Height))
	srcR := src.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := image.Point{X: x, Y: y}.Sub(dstRect.Min).Add(sp)
			if !p.In(srcR) {
				continue
			}
			g := color.GrayModel.Convert(src.At(p.X, p.Y)).(color.Gray)
			if err := d.DrawPixel(int16(x), int16(y), g.Y); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ display.Drawer = &Dev{}
