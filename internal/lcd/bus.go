package lcd

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddress is the usual PCF8574 backpack address.
const DefaultAddress uint16 = 0x27

// ErrNoDevice is returned by Open when nothing answers at the address.
var ErrNoDevice = errors.New("lcd: no device at address")

// i2cBus writes single bytes to one I2C peripheral.
type i2cBus struct {
	dev *i2c.Dev
	buf [1]byte
}

func (b *i2cBus) WriteByte(c byte) error {
	b.buf[0] = c
	return b.dev.Tx(b.buf[:], nil)
}

// Open initializes the host drivers, opens the named I2C bus ("" picks the
// first one) and probes the expander at addr with a one byte read. The
// returned closer releases the bus.
func Open(busName string, addr uint16, opts ...Option) (*Display, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("lcd: init host drivers: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("lcd: open i2c bus %q: %w", busName, err)
	}
	dev := &i2c.Dev{Addr: addr, Bus: bus}
	var probe [1]byte
	if err := dev.Tx(nil, probe[:]); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("%w 0x%02X on %s: %v", ErrNoDevice, addr, bus, err)
	}
	return New(&i2cBus{dev: dev}, opts...), bus, nil
}
