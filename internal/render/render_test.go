package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/coreman2200/arcaluminis-matrix/internal/config"
	"github.com/coreman2200/arcaluminis-matrix/is31fl3731"
)

// strip records what a 1-D console preview would get.
type strip struct {
	img    *image.Gray
	halted bool
}

func (s *strip) String() string          { return "strip" }
func (s *strip) Halt() error             { s.halted = true; return nil }
func (s *strip) ColorModel() color.Model { return color.GrayModel }
func (s *strip) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 1) }
func (s *strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.img = image.NewGray(s.Bounds())
	for x := r.Min.X; x < r.Max.X; x++ {
		s.img.Set(x, 0, src.At(x-r.Min.X+sp.X, sp.Y))
	}
	return nil
}

var _ display.Drawer = &strip{}

// recordCloser adds the Close that i2c.BusCloser needs to an i2ctest.Record.
type recordCloser struct{ *i2ctest.Record }

func (recordCloser) Close() error { return nil }

func openRecorded(t *testing.T, cfg *config.Config) (*Renderer, *i2ctest.Record) {
	b := &i2ctest.Record{}
	r, err := openBus(&Renderer{log: zerolog.Nop()}, recordCloser{b}, cfg)
	require.NoError(t, err)
	return r, b
}

func TestOpenBus(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Addr = 0x75
	cfg.Frame = 2
	shown := uint8(4)
	cfg.DisplayFrame = &shown
	r, b := openRecorded(t, cfg)

	require.NotNil(t, r.Dev)
	assert.Equal(t, uint8(2), r.Dev.Frame())
	n := len(b.Ops)
	require.True(t, n > 2)
	assert.Equal(t, uint16(0x75), b.Ops[n-1].Addr)
	assert.Equal(t, []byte{0xFD, 0x0B}, b.Ops[n-2].W)
	assert.Equal(t, []byte{0x01, 0x04}, b.Ops[n-1].W)
	assert.NoError(t, r.Close())
	assert.Len(t, b.Ops, n, "Close only releases the bus")
}

func TestOpenBus_KeepsShownFrame(t *testing.T) {
	_, b := openRecorded(t, config.Default())
	for _, io := range b.Ops {
		assert.NotEqual(t, []byte{0x01, 0x00}, io.W, "picture frame must not be written")
	}
	assert.Equal(t, []byte{0x06, 0x00}, b.Ops[len(b.Ops)-1].W, "init is the last write")
}

func TestClose_KeepsChipRunning(t *testing.T) {
	r, b := openRecorded(t, config.Default())
	b.Ops = nil
	require.NoError(t, r.Dev.Fill(200))
	require.NoError(t, r.Close())
	require.Len(t, b.Ops, 2)
	for _, io := range b.Ops {
		assert.NotEqual(t, []byte{0x0A, 0x00}, io.W, "no software shutdown")
	}
}

func TestHalt(t *testing.T) {
	r, b := openRecorded(t, config.Default())
	b.Ops = nil
	require.NoError(t, r.Halt())
	assert.Equal(t, []byte{0xFD, 0x0B}, b.Ops[0].W)
	assert.Equal(t, []byte{0x0A, 0x00}, b.Ops[1].W)
}

func TestOpen_UnknownDriver(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Driver = "sm"
	r, err := Open(cfg, zerolog.New(&buf))
	require.NoError(t, err)
	assert.Nil(t, r.Dev, "falls back to the console")
	assert.Contains(t, buf.String(), "unknown driver")
	assert.Contains(t, buf.String(), `"driver":"sm"`)
}

func TestOpenBus_BadSpeed(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Speed = "warp"
	_, err := openBus(&Renderer{log: zerolog.Nop()}, recordCloser{&i2ctest.Record{}}, cfg)
	assert.Error(t, err)
}

func TestSwap(t *testing.T) {
	cfg := config.Default()
	r, b := openRecorded(t, cfg)
	img := image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height))

	for _, want := range []byte{1, 0, 1} {
		b.Ops = nil
		require.NoError(t, r.Swap(img))
		assert.Equal(t, []byte{0xFD, want}, b.Ops[0].W, "draws into the hidden frame")
		assert.Equal(t, []byte{0x01, want}, b.Ops[len(b.Ops)-1].W, "then shows it")
		assert.Equal(t, want, r.Dev.Frame())
	}
}

func TestRender_Console(t *testing.T) {
	s := &strip{}
	r := New(s, zerolog.Nop())
	assert.Nil(t, r.Dev)

	img := image.NewGray(image.Rect(10, 10, 10+is31fl3731.Width, 10+is31fl3731.Height))
	img.SetGray(10+3, 10+2, color.Gray{Y: 0x99})
	require.NoError(t, r.Render(img))
	assert.Equal(t, uint8(0x99), s.img.GrayAt(2*is31fl3731.Width+3, 0).Y)
	assert.Equal(t, uint8(0), s.img.GrayAt(0, 0).Y)

	require.NoError(t, r.Swap(img))
	require.NoError(t, r.Clear())
	assert.Equal(t, uint8(0), s.img.GrayAt(2*is31fl3731.Width+3, 0).Y)
	require.NoError(t, r.Close())
	assert.True(t, s.halted)
}

func TestRunner(t *testing.T) {
	for _, tc := range []struct {
		kind  Kind
		steps int
		lit   int
	}{
		{IndexSweep, 128, 1},
		{Columns, 16, 8},
		{Rows, 8, 16},
		{None, 0, 0},
	} {
		t.Run(string(tc.kind), func(t *testing.T) {
			r := NewRunner(tc.kind)
			assert.Equal(t, tc.kind, r.Kind())
			img := image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height))
			n := 0
			for r.Step(img) {
				lit := 0
				for _, p := range img.Pix {
					if p == 0xFF {
						lit++
					}
				}
				assert.Equal(t, tc.lit, lit, "step %d", n)
				n++
			}
			assert.Equal(t, tc.steps, n)
			assert.False(t, r.Step(img))
		})
	}
}

func TestRunner_IndexSweepOrder(t *testing.T) {
	r := NewRunner(IndexSweep)
	img := image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height))
	for i := 0; r.Step(img); i++ {
		assert.Equal(t, uint8(0xFF), img.GrayAt(i%is31fl3731.Width, i/is31fl3731.Width).Y, "step %d", i)
	}
}
