package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-matrix/internal/config"
	"github.com/coreman2200/arcaluminis-matrix/internal/render"
	"github.com/coreman2200/arcaluminis-matrix/is31fl3731"
)

const usage = `usage: matrixctl [flags] <command> [args]

commands:
  clear                 clear the drawing frame
  fill <0-255>          fill the drawing frame
  pixel <x> <y> <0-255> draw one pixel
  show <frame>          display a frame
  image <file.png>      draw a PNG into the drawing frame
  sweep [kind]          wiring check: index_sweep (default), columns, rows
  config                write the effective configuration to -config

flags:
`

func main() {
	var (
		configPath = flag.String("config", "matrix.yaml", "path to config file")
		driver     = flag.String("driver", "", "driver: i2c | sim")
		bus        = flag.String("bus", "", "I²C bus name")
		addr       = flag.Uint("addr", 0, "I²C address of the chip")
		frame      = flag.Uint("frame", 0, "frame to draw into (0-7)")
		show       = flag.Uint("show", 0, "frame to display on start (0-7); unset keeps the shown frame")
		fps        = flag.Int("fps", 0, "sweep steps per second")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// ---- Config: file, then flags that were set ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Debug().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "bus":
			cfg.Bus.Name = *bus
		case "addr":
			cfg.Bus.Addr = uint16(*addr)
		case "frame":
			cfg.Frame = uint8(*frame)
		case "fps":
			cfg.FPS = *fps
		case "show":
			v := uint8(*show)
			cfg.DisplayFrame = &v
		}
	})

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "config" {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("save config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	r, err := render.Open(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("open matrix")
	}
	defer r.Close()

	if err := run(r, cfg, cmd, args); err != nil {
		log.Error().Err(err).Str("cmd", cmd).Msg("failed")
		r.Close()
		os.Exit(1)
	}
}

func run(r *render.Renderer, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "clear":
		return r.Clear()

	case "fill":
		v, err := byteArgs(args, 1)
		if err != nil {
			return err
		}
		if r.Dev == nil {
			return r.Render(image.NewUniform(color.Gray{Y: v[0]}))
		}
		return r.Dev.Fill(v[0])

	case "pixel":
		v, err := byteArgs(args, 3)
		if err != nil {
			return err
		}
		if r.Dev == nil {
			img := image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height))
			img.SetGray(int(v[0]), int(v[1]), color.Gray{Y: v[2]})
			return r.Render(img)
		}
		return r.Dev.DrawPixel(int16(v[0]), int16(v[1]), v[2])

	case "show":
		v, err := byteArgs(args, 1)
		if err != nil {
			return err
		}
		if r.Dev == nil {
			log.Info().Uint8("frame", v[0]).Msg("console preview has a single frame")
			return nil
		}
		return r.Dev.DisplayFrame(v[0])

	case "image":
		if len(args) != 1 {
			return fmt.Errorf("image: want 1 argument, got %d", len(args))
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		return r.Render(img)

	case "sweep":
		kind := render.IndexSweep
		if len(args) > 0 {
			kind = render.Kind(args[0])
		}
		return sweep(r, render.NewRunner(kind), cfg.FPS)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func sweep(r *render.Renderer, p *render.Runner, fps int) error {
	if p.Steps() == 0 {
		return fmt.Errorf("unknown pattern %q", p.Kind())
	}
	if fps <= 0 {
		fps = 10
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	img := image.NewGray(image.Rect(0, 0, is31fl3731.Width, is31fl3731.Height))
	for i := 0; p.Step(img); i++ {
		if err := r.Swap(img); err != nil {
			return err
		}
		log.Debug().Int("step", i).Str("pattern", string(p.Kind())).Msg("step")
		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info().Msg("sweep interrupted")
			return r.Halt()
		}
	}
	log.Info().Int("steps", p.Steps()).Str("pattern", string(p.Kind())).Msg("sweep done")
	return nil
}

func byteArgs(args []string, n int) ([]uint8, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(args))
	}
	out := make([]uint8, n)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
