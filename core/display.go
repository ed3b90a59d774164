package core

// DisplayPositions is the number of digit positions on the display
const DisplayPositions = 4

// DisplayDriver writes one digit (or Blank) to one display position.
// Implementations return only after the value is latched.
type DisplayDriver interface {
	DisplayDigit(d Digit, position uint8)
}

// Display projects the attempt buffer onto the multiplexed display.
// It keeps no state of its own besides a write counter.
type Display struct {
	drv    DisplayDriver
	writes uint32
}

// NewDisplay wraps a display driver
func NewDisplay(drv DisplayDriver) *Display {
	return &Display{drv: drv}
}

// Render writes the occupied positions of buf. Positions past buf.Len()
// are left alone; Clear is the only path that blanks them.
func (d *Display) Render(buf *Buffer) {
	for i := 0; i < buf.Len() && i < DisplayPositions; i++ {
		d.write(buf.At(i), uint8(i))
	}
}

// Clear writes Blank to every position
func (d *Display) Clear() {
	for i := uint8(0); i < DisplayPositions; i++ {
		d.write(Blank, i)
	}
}

// Writes returns the number of displayDigit calls issued so far
func (d *Display) Writes() uint32 {
	return d.writes
}

func (d *Display) write(digit Digit, position uint8) {
	d.writes++
	d.drv.DisplayDigit(digit, position)
}
