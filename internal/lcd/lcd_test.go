package lcd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	bytes  []byte
	failAt int
}

func (b *recordingBus) WriteByte(c byte) error {
	if b.failAt > 0 && len(b.bytes)+1 == b.failAt {
		return errors.New("remote I/O error")
	}
	b.bytes = append(b.bytes, c)
	return nil
}

type sleepLog struct{ calls []time.Duration }

func (s *sleepLog) sleep(d time.Duration) { s.calls = append(s.calls, d) }

func newTestDisplay(bus *recordingBus, sl *sleepLog) *Display {
	return New(bus, WithSleep(sl.sleep))
}

// expected returns the six bus writes for one logical byte.
func expected(b, mode byte) []byte {
	high := mode | b&0xF0 | Backlight
	low := mode | (b<<4)&0xF0 | Backlight
	return []byte{high, high | Enable, high &^ Enable, low, low | Enable, low &^ Enable}
}

func TestWriteSendsInitSequenceOnce(t *testing.T) {
	bus := &recordingBus{}
	sl := &sleepLog{}
	d := newTestDisplay(bus, sl)
	require.False(t, d.Initialized())

	require.NoError(t, d.Write("first", Line1))
	require.True(t, d.Initialized())

	var want []byte
	for _, c := range initSequence {
		want = append(want, expected(c, modeCommand)...)
	}
	require.GreaterOrEqual(t, len(bus.bytes), len(want))
	assert.Equal(t, want, bus.bytes[:len(want)])

	// init + line select + 16 chars
	assert.Len(t, bus.bytes, 6*(len(initSequence)+1+Columns))

	for i := 0; i < 5; i++ {
		bus.bytes = nil
		require.NoError(t, d.Write("again", Line2))
		assert.Len(t, bus.bytes, 6*(1+Columns), "no init bytes on later writes")
	}
}

func TestWriteLineSelectAndCharacters(t *testing.T) {
	bus := &recordingBus{}
	d := newTestDisplay(bus, &sleepLog{})
	require.NoError(t, d.Write("x", Line1))
	bus.bytes = nil

	require.NoError(t, d.Write("Hi", Line2))

	want := expected(byte(Line2), modeCommand)
	want = append(want, expected('H', modeCharacter)...)
	want = append(want, expected('i', modeCharacter)...)
	for i := 0; i < Columns-2; i++ {
		want = append(want, expected(' ', modeCharacter)...)
	}
	assert.Equal(t, want, bus.bytes)
}

func TestEveryNibbleCarriesBacklightAndOnePulse(t *testing.T) {
	bus := &recordingBus{}
	d := newTestDisplay(bus, &sleepLog{})
	require.NoError(t, d.Write("192.168.1.20", Line1))

	require.Zero(t, len(bus.bytes)%3)
	for i := 0; i < len(bus.bytes); i += 3 {
		n, set, cleared := bus.bytes[i], bus.bytes[i+1], bus.bytes[i+2]
		assert.NotZero(t, n&Backlight)
		assert.NotZero(t, set&Backlight)
		assert.NotZero(t, cleared&Backlight)
		assert.Zero(t, n&Enable, "nibble %d put with enable low", i/3)
		assert.Equal(t, n|Enable, set)
		assert.Equal(t, n, cleared)
		assert.Zero(t, n&0x02, "RW stays low")
	}
}

func TestSleepsFollowProtocol(t *testing.T) {
	bus := &recordingBus{}
	sl := &sleepLog{}
	d := newTestDisplay(bus, sl)
	require.NoError(t, d.Write("", Line1))

	nibbles := 2 * (len(initSequence) + 1 + Columns)
	// three sleeps per nibble plus one settle after init
	require.Len(t, sl.calls, 3*nibbles+1)
	for _, c := range sl.calls {
		assert.Equal(t, 500*time.Microsecond, c)
	}
	assert.Equal(t, EnableDelay, EnablePulse)
}

func TestNonASCIIIsReplaced(t *testing.T) {
	emu := NewEmulator()
	d := New(emu, WithSleep(func(time.Duration) {}))
	require.NoError(t, d.Write("CPU: ü\t", Line1))
	assert.Equal(t, "CPU: ??         ", emu.Rows()[0])
}

func TestBusErrorDuringInitLeavesDisplayUninitialized(t *testing.T) {
	bus := &recordingBus{failAt: 4}
	d := newTestDisplay(bus, &sleepLog{})

	err := d.Write("hello", Line1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init command 0x33")
	assert.Contains(t, err.Error(), "remote I/O error")
	assert.False(t, d.Initialized())
	assert.Len(t, bus.bytes, 3)
}

func TestBusErrorMidLineIsReturned(t *testing.T) {
	bus := &recordingBus{}
	d := newTestDisplay(bus, &sleepLog{})
	require.NoError(t, d.Write("ok", Line1))

	bus.failAt = len(bus.bytes) + 6*3 + 1
	err := d.Write("broken", Line2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `write "broken"`)
	assert.True(t, d.Initialized())
}
