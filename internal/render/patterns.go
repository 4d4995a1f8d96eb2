package render

import (
	"image"

	"github.com/coreman2200/arcaluminis-matrix/is31fl3731"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	Columns    Kind = "columns"
	Rows       Kind = "rows"
)

// Runner steps through a wiring check pattern at full intensity.
type Runner struct {
	kind Kind
	step int
}

func NewRunner(kind Kind) *Runner { return &Runner{kind: kind} }

func (r *Runner) Kind() Kind { return r.kind }

// Steps returns the number of steps of the pattern.
func (r *Runner) Steps() int {
	switch r.kind {
	case IndexSweep:
		return is31fl3731.Width * is31fl3731.Height
	case Columns:
		return is31fl3731.Width
	case Rows:
		return is31fl3731.Height
	}
	return 0
}

// Step fills img with the next step; returns false when complete.
// img must cover the 16x8 grid.
func (r *Runner) Step(img *image.Gray) bool {
	if r.step >= r.Steps() {
		return false
	}
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	b := img.Bounds().Min
	switch r.kind {
	case IndexSweep:
		img.Pix[img.PixOffset(b.X+r.step%is31fl3731.Width, b.Y+r.step/is31fl3731.Width)] = 0xFF
	case Columns:
		for y := 0; y < is31fl3731.Height; y++ {
			img.Pix[img.PixOffset(b.X+r.step, b.Y+y)] = 0xFF
		}
	case Rows:
		for x := 0; x < is31fl3731.Width; x++ {
			img.Pix[img.PixOffset(b.X+x, b.Y+r.step)] = 0xFF
		}
	}
	r.step++
	return true
}
