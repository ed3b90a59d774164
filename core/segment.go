package core

import "time"

// Segment patterns for a common-cathode 7-segment digit, bit 0 = segment a
var segmentTable = [10]uint8{
	0x3F, // 0
	0x06, // 1
	0x5B, // 2
	0x4F, // 3
	0x66, // 4
	0x6D, // 5
	0x7D, // 6
	0x07, // 7
	0x7F, // 8
	0x6F, // 9
}

// DefaultStrobeWidthUS is the minimum low time of the display latch strobe
const DefaultStrobeWidthUS = 500

// SegmentsFor returns the segment pattern for d; anything but '0'..'9' is dark
func SegmentsFor(d Digit) uint8 {
	if !d.Valid() {
		return 0
	}
	return segmentTable[d-'0']
}

// Latch pulses the display strobe line and returns once the pulse is over
type Latch interface {
	Pulse()
}

// PinLatch drives the strobe from a GPIO: low for Width, then high again
type PinLatch struct {
	GPIO  GPIODriver
	Pin   GPIOPin
	Width time.Duration
	Sleep func(time.Duration) // defaults to time.Sleep
}

// NewPinLatch configures pin as an output idling high
func NewPinLatch(gpio GPIODriver, pin GPIOPin, width time.Duration) (*PinLatch, error) {
	if err := gpio.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := gpio.SetPin(pin, true); err != nil {
		return nil, err
	}
	return &PinLatch{GPIO: gpio, Pin: pin, Width: width}, nil
}

// Pulse implements Latch
func (l *PinLatch) Pulse() {
	sleep := l.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	_ = l.GPIO.SetPin(l.Pin, false)
	sleep(l.Width)
	_ = l.GPIO.SetPin(l.Pin, true)
}

// MuxPins lists the GPIOs of the multiplexed display
type MuxPins struct {
	Segments [7]GPIOPin // a..g
	Select   [2]GPIOPin // position select, bit 0 first
}

// MuxDisplay implements DisplayDriver on a single set of segment lines
// shared by four positions. Only the last written position is guaranteed to
// stay lit unless the hardware latches each position.
type MuxDisplay struct {
	gpio  GPIODriver
	pins  MuxPins
	latch Latch
}

// NewMuxDisplay configures the segment and select pins as outputs
func NewMuxDisplay(gpio GPIODriver, pins MuxPins, latch Latch) (*MuxDisplay, error) {
	for _, p := range pins.Segments {
		if err := gpio.ConfigureOutput(p); err != nil {
			return nil, err
		}
	}
	for _, p := range pins.Select {
		if err := gpio.ConfigureOutput(p); err != nil {
			return nil, err
		}
	}
	return &MuxDisplay{gpio: gpio, pins: pins, latch: latch}, nil
}

// DisplayDigit implements DisplayDriver
func (m *MuxDisplay) DisplayDigit(d Digit, position uint8) {
	seg := SegmentsFor(d)
	for i, p := range m.pins.Segments {
		_ = m.gpio.SetPin(p, seg&(1<<i) != 0)
	}

	// Position 0 is wired to the rightmost select code
	sel := 3 - position%DisplayPositions
	_ = m.gpio.SetPin(m.pins.Select[0], sel&1 != 0)
	_ = m.gpio.SetPin(m.pins.Select[1], sel&2 != 0)

	m.latch.Pulse()
}
