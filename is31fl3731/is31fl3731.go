package is31fl3731

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	regCommand = 0xFD // bank select
	bankFunc   = 0x0B

	regPictureFrame = 0x01
	regAudioSync    = 0x06
	regShutdown     = 0x0A

	regLEDEnable = 0x00
	regBlink     = 0x12
	regPWM       = 0x24

	ledEnableLen = regBlink - regLEDEnable // 18
	pwmLen       = 0xB4 - regPWM           // 144
	frameLen     = 0xB4                    // every per-frame register

	// NumFrames is the number of hardware frame buffers.
	NumFrames = 8

	resetDelay = 10 * time.Millisecond
)

// Opts holds the configuration options.
type Opts struct {
	// Addr is the 7-bit I²C address of the chip.
	Addr uint16
	// Delay waits for the chip to settle after the reset pulse. nil means
	// time.Sleep.
	Delay func(time.Duration)
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr: 0x74,
}

// Dev is a handle to an initialized IS31FL3731.
//
// Dev is not safe for concurrent use.
type Dev struct {
	c     i2c.Dev
	frame uint8
}

// NewI2C resets the chip at opts.Addr on b and prepares all 8 frames:
// every LED enabled, blink disabled and PWM zeroed. The chip is left running
// and displaying whatever frame it displayed before.
//
// The first bus error aborts initialization and is returned as is.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, errors.New("is31fl3731: nil bus")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	delay := opts.Delay
	if delay == nil {
		delay = time.Sleep
	}
	d := &Dev{c: i2c.Dev{Bus: b, Addr: opts.Addr}}

	if err := d.writeRegister(bankFunc, regShutdown, 0x00); err != nil {
		return nil, err
	}
	delay(resetDelay)
	if err := d.writeRegister(bankFunc, regShutdown, 0x01); err != nil {
		return nil, err
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	for f := uint8(0); f < NumFrames; f++ {
		for r := uint8(regLEDEnable); r < regLEDEnable+ledEnableLen; r++ {
			if err := d.writeRegister(f, r, 0xFF); err != nil {
				return nil, err
			}
		}
	}
	if err := d.writeRegister(bankFunc, regAudioSync, 0x00); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("IS31FL3731{%s}", &d.c)
}

// SelectFrame sets the frame that Clear, Fill and the drawing operations
// write into. Values above 7 select frame 0.
func (d *Dev) SelectFrame(frame uint8) {
	d.frame = clampFrame(frame)
}

// Frame returns the frame currently drawn into.
func (d *Dev) Frame() uint8 {
	return d.frame
}

// DisplayFrame makes frame the one shown by the chip. Values above 7 show
// frame 0. The frame drawn into is not changed.
func (d *Dev) DisplayFrame(frame uint8) error {
	return d.writeRegister(bankFunc, regPictureFrame, clampFrame(frame))
}

// Clear enables every LED of the current frame, disables blink and turns all
// of them off, in a single bus transaction.
func (d *Dev) Clear() error {
	var cmd [1 + frameLen]byte
	cmd[0] = regLEDEnable
	for i := 0; i < ledEnableLen; i++ {
		cmd[1+regLEDEnable+i] = 0xFF
	}
	// blink and PWM tables stay zero.
	if err := d.selectBank(d.frame); err != nil {
		return err
	}
	return d.c.Tx(cmd[:], nil)
}

// Fill sets every LED of the current frame to intensity c. Enable and blink
// registers are left untouched.
func (d *Dev) Fill(c uint8) error {
	var cmd [1 + pwmLen]byte
	for i := range cmd {
		cmd[i] = c
	}
	cmd[0] = regPWM
	if err := d.selectBank(d.frame); err != nil {
		return err
	}
	return d.c.Tx(cmd[:], nil)
}

// Halt puts the chip in software shutdown. Register contents are kept but
// nothing is displayed until the chip is initialized again with NewI2C.
func (d *Dev) Halt() error {
	return d.writeRegister(bankFunc, regShutdown, 0x00)
}

func (d *Dev) selectBank(bank uint8) error {
	return d.c.Tx([]byte{regCommand, bank}, nil)
}

// writeRegister selects bank then writes value at reg. The bank is selected
// on every call; the chip's bank pointer is never cached.
func (d *Dev) writeRegister(bank, reg, value uint8) error {
	if err := d.selectBank(bank); err != nil {
		return err
	}
	return d.c.Tx([]byte{reg, value}, nil)
}

func clampFrame(frame uint8) uint8 {
	if frame >= NumFrames {
		return 0
	}
	return frame
}
