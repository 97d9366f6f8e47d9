// Package lcd drives a 16x2 HD44780 character display wired through a
// PCF8574 I2C backpack in 4-bit mode.
//
// Every byte is split into two nibbles. Each nibble is put on the expander
// with the backlight bit set and latched by pulsing the enable bit:
//
//	write(n); sleep(EnableDelay)
//	write(n | Enable); sleep(EnablePulse)
//	write(n &^ Enable); sleep(EnableDelay)
//
// The controller is initialized lazily on the first Write and never again.
package lcd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/roofpi/internal/format"
)

// Expander bits.
const (
	RegisterSelect byte = 0x01 // RS: 1 for character data, 0 for commands
	Enable         byte = 0x04
	Backlight      byte = 0x08
)

// Timing of one enable pulse.
const (
	EnablePulse = 500 * time.Microsecond
	EnableDelay = 500 * time.Microsecond
)

// Line is the set-DDRAM-address command selecting a display row.
type Line byte

const (
	Line1 Line = 0x80
	Line2 Line = 0xC0
)

// Columns is the number of characters per row.
const Columns = format.Width

// initSequence puts the controller in 4-bit, two-line mode, cursor off,
// left-to-right entry, and clears it.
var initSequence = []byte{0x33, 0x32, 0x06, 0x0C, 0x28, 0x01}

const (
	modeCommand   byte = 0
	modeCharacter      = RegisterSelect
)

type state uint8

const (
	uninitialized state = iota
	initialized
)

// Display is one session with the controller. It owns the bus exclusively
// and is not safe for concurrent use.
type Display struct {
	bus    io.ByteWriter
	state  state
	sleep  func(time.Duration)
	logger *slog.Logger
}

// Option configures a Display.
type Option func(*Display)

// WithSleep replaces time.Sleep for the protocol delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Display) { d.sleep = sleep }
}

// WithLogger sets the logger used for init diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Display) { d.logger = logger }
}

// New wraps an already addressed bus. Nothing is written until Write.
func New(bus io.ByteWriter, opts ...Option) *Display {
	d := &Display{
		bus:    bus,
		sleep:  time.Sleep,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Initialized reports whether the init sequence has completed.
func (d *Display) Initialized() bool { return d.state == initialized }

// Write shows text on the given row, padded or cut to Columns characters.
// Any bus error is returned as is; the controller may be left half-latched
// and the caller is expected to give up on the device.
func (d *Display) Write(text string, line Line) error {
	if err := d.init(); err != nil {
		return err
	}
	if err := d.sendByte(byte(line), modeCommand); err != nil {
		return fmt.Errorf("select line 0x%02X: %w", byte(line), err)
	}
	for _, r := range format.Line(text, Columns) {
		if err := d.sendByte(charByte(r), modeCharacter); err != nil {
			return fmt.Errorf("write %q: %w", text, err)
		}
	}
	return nil
}

func (d *Display) init() error {
	if d.state == initialized {
		return nil
	}
	for _, cmd := range initSequence {
		if err := d.sendByte(cmd, modeCommand); err != nil {
			return fmt.Errorf("init command 0x%02X: %w", cmd, err)
		}
	}
	d.sleep(EnableDelay)
	d.state = initialized
	d.logger.Debug("lcd initialized")
	return nil
}

func (d *Display) sendByte(b, mode byte) error {
	high := mode | (b & 0xF0) | Backlight
	low := mode | ((b << 4) & 0xF0) | Backlight
	if err := d.sendNibble(high); err != nil {
		return err
	}
	return d.sendNibble(low)
}

func (d *Display) sendNibble(bits byte) error {
	if err := d.write(bits); err != nil {
		return err
	}
	d.sleep(EnableDelay)
	if err := d.write(bits | Enable); err != nil {
		return err
	}
	d.sleep(EnablePulse)
	if err := d.write(bits &^ Enable); err != nil {
		return err
	}
	d.sleep(EnableDelay)
	return nil
}

func (d *Display) write(b byte) error {
	if err := d.bus.WriteByte(b); err != nil {
		return fmt.Errorf("lcd: write 0x%02X: %w", b, err)
	}
	return nil
}

// charByte maps a rune to the controller's character ROM; anything outside
// ASCII shows as '?'.
func charByte(r rune) byte {
	if r < 0x20 || r > 0x7E {
		return '?'
	}
	return byte(r)
}
