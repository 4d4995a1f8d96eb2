// Package is31fl3731 drives the ISSI IS31FL3731 matrix LED controller over I²C.
//
// The chip holds 8 frames of 144 LED states. Each frame lives in its own
// register bank with three tables: LED enable (0x00-0x11), blink enable
// (0x12-0x23) and PWM intensity (0x24-0xB3). A ninth bank, the function
// bank, holds the global controls: shutdown, audio sync and the frame that is
// actually displayed.
//
// Drawing operations write into the frame chosen with SelectFrame. Only
// DisplayFrame changes what is shown, so frames can be drawn off-screen and
// flipped in.
//
// The 16x8 pixel mapping matches the Adafruit 16x8 CharliePlex FeatherWing
// wiring.
//
// Datasheet
//
// https://www.issi.com/WW/pdf/31FL3731.pdf
package is31fl3731
