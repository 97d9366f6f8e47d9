package lcd

import (
	"strings"
	"sync"
)

// Emulator is a bus that decodes the expander byte stream the way an
// HD44780 in 4-bit mode would and keeps the resulting screen. Nibbles are
// latched on the falling edge of Enable and paired high then low.
type Emulator struct {
	mu       sync.Mutex
	last     byte
	pending  byte
	half     bool
	addr     byte
	rows     [2][Columns]byte
	commands []byte
	writes   int
	fail     error
}

// NewEmulator returns an emulator with a blank screen.
func NewEmulator() *Emulator {
	e := &Emulator{}
	e.clear()
	return e
}

// FailWith makes every following WriteByte return err.
func (e *Emulator) FailWith(err error) {
	e.mu.Lock()
	e.fail = err
	e.mu.Unlock()
}

func (e *Emulator) WriteByte(b byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return e.fail
	}
	e.writes++
	falling := e.last&Enable != 0 && b&Enable == 0
	e.last = b
	if !falling {
		return nil
	}
	nibble := b & 0xF0
	if !e.half {
		e.pending = nibble
		e.half = true
		return nil
	}
	e.half = false
	value := e.pending | nibble>>4
	if b&RegisterSelect != 0 {
		e.putChar(value)
	} else {
		e.command(value)
	}
	return nil
}

func (e *Emulator) command(c byte) {
	e.commands = append(e.commands, c)
	switch {
	case c&0x80 != 0:
		e.addr = c & 0x7F
	case c == 0x01:
		e.clear()
	}
}

func (e *Emulator) putChar(c byte) {
	row, col := 0, int(e.addr)
	if e.addr >= 0x40 {
		row, col = 1, int(e.addr-0x40)
	}
	if col < Columns {
		e.rows[row][col] = c
	}
	e.addr++
}

func (e *Emulator) clear() {
	for r := range e.rows {
		for c := range e.rows[r] {
			e.rows[r][c] = ' '
		}
	}
	e.addr = 0
}

// Rows returns the visible text of both rows.
func (e *Emulator) Rows() [2]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return [2]string{string(e.rows[0][:]), string(e.rows[1][:])}
}

// Commands returns every command byte decoded so far.
func (e *Emulator) Commands() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.commands...)
}

// Writes is the number of raw bus writes seen.
func (e *Emulator) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

func (e *Emulator) String() string {
	r := e.Rows()
	return strings.Join(r[:], "\n")
}
