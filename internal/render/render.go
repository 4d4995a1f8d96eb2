package render

import (
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/arcaluminis-matrix/internal/config"
	"github.com/coreman2200/arcaluminis-matrix/is31fl3731"
)

// Renderer pushes images to either the matrix or a console preview.
type Renderer struct {
	drawer display.Drawer
	// Dev is nil when rendering to the console.
	Dev *is31fl3731.Dev
	bus i2c.BusCloser
	log zerolog.Logger

	front, back uint8 // shown frame, frame swapped in next
}

// New wraps an existing drawer, typically an *is31fl3731.Dev.
func New(d display.Drawer, log zerolog.Logger) *Renderer {
	r := &Renderer{drawer: d, log: log}
	r.Dev, _ = d.(*is31fl3731.Dev)
	return r
}

// Open initializes the host and the matrix described by cfg. When cfg asks
// for the simulator, or no I²C bus can be opened, it falls back to a console
// preview.
func Open(cfg *config.Config, log zerolog.Logger) (*Renderer, error) {
	r := &Renderer{log: log}
	switch cfg.Driver {
	case "i2c", "":
	case "sim":
		r.drawer = screen.New(is31fl3731.Width * is31fl3731.Height)
		log.Info().Str("driver", "sim").Msg("rendering to console")
		return r, nil
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; rendering to console")
		r.drawer = screen.New(is31fl3731.Width * is31fl3731.Height)
		return r, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(cfg.Bus.Name)
	if err != nil {
		log.Warn().Err(err).Str("bus", cfg.Bus.Name).Msg("no I²C bus; rendering to console")
		r.drawer = screen.New(is31fl3731.Width * is31fl3731.Height)
		return r, nil
	}
	return openBus(r, b, cfg)
}

// openBus wires an already opened bus. Split out of Open for tests.
func openBus(r *Renderer, b i2c.BusCloser, cfg *config.Config) (*Renderer, error) {
	f, err := cfg.Bus.Frequency()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if f != 0 {
		if err := b.SetSpeed(f); err != nil {
			r.log.Warn().Err(err).Str("speed", f.String()).Msg("bus speed not applied")
		}
	}
	d, err := is31fl3731.NewI2C(b, &is31fl3731.Opts{Addr: cfg.Bus.Addr})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("is31fl3731 init on %s: %w", b, err)
	}
	d.SelectFrame(cfg.Frame)
	r.Dev, r.drawer, r.bus = d, d, b
	r.back = d.Frame()
	// Left alone unless configured, so a frame shown by an earlier run stays up.
	if cfg.DisplayFrame != nil {
		if err := d.DisplayFrame(*cfg.DisplayFrame); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("display frame: %w", err)
		}
		r.front = *cfg.DisplayFrame
		if r.front >= is31fl3731.NumFrames {
			r.front = 0
		}
	}
	r.log.Info().Str("dev", d.String()).Uint8("frame", d.Frame()).Msg("matrix ready")
	return r, nil
}

func (r *Renderer) String() string {
	return fmt.Sprintf("Renderer{%s}", r.drawer)
}

// Render draws img over the whole grid. The console preview gets the rows
// laid end to end on a single line.
func (r *Renderer) Render(img image.Image) error {
	rect := image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height)
	sp := img.Bounds().Min
	if r.Dev == nil {
		img, rect, sp = flatten(img), r.drawer.Bounds(), image.Point{}
	}
	if err := r.drawer.Draw(rect, img, sp); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func flatten(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, is31fl3731.Width*is31fl3731.Height, 1))
	for y := 0; y < is31fl3731.Height; y++ {
		for x := 0; x < is31fl3731.Width; x++ {
			p := b.Min.Add(image.Pt(x, y))
			if !p.In(b) {
				continue
			}
			out.Set(y*is31fl3731.Width+x, 0, img.At(p.X, p.Y))
		}
	}
	return out
}

// Swap draws img into the hidden frame and then shows it, so a step is never
// seen half drawn. On the console it is Render.
func (r *Renderer) Swap(img image.Image) error {
	if r.Dev == nil {
		return r.Render(img)
	}
	if r.back == r.front {
		r.back = (r.front + 1) % is31fl3731.NumFrames
	}
	r.Dev.SelectFrame(r.back)
	if err := r.Render(img); err != nil {
		return err
	}
	if err := r.Dev.DisplayFrame(r.back); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	r.front, r.back = r.back, r.front
	return nil
}

// Clear blanks the frame drawn into.
func (r *Renderer) Clear() error {
	if r.Dev == nil {
		return r.Render(image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height)))
	}
	return r.Dev.Clear()
}

// Halt stops the output. On the matrix this is software shutdown: nothing is
// shown until the next Open.
func (r *Renderer) Halt() error {
	return r.drawer.Halt()
}

// Close releases the bus. The chip keeps running and keeps showing what was
// drawn; the console preview is halted.
func (r *Renderer) Close() error {
	if r.Dev == nil {
		return r.drawer.Halt()
	}
	if r.bus != nil {
		return r.bus.Close()
	}
	return nil
}
