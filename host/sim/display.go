package sim

import (
	"strings"
	"sync"

	"keylock/core"
)

// Display latches each position like a display with per-digit storage
type Display struct {
	mu        sync.Mutex
	positions [core.DisplayPositions]core.Digit
	writes    int
	onChange  func(string)
}

// NewDisplay returns an all-blank display
func NewDisplay() *Display {
	d := &Display{}
	for i := range d.positions {
		d.positions[i] = core.Blank
	}
	return d
}

// OnChange registers fn to receive the rendered text after every write
// that changes it
func (d *Display) OnChange(fn func(string)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// DisplayDigit implements core.DisplayDriver
func (d *Display) DisplayDigit(digit core.Digit, position uint8) {
	d.mu.Lock()
	d.writes++
	if int(position) >= len(d.positions) {
		d.mu.Unlock()
		return
	}
	changed := d.positions[position] != digit
	d.positions[position] = digit
	text := d.textLocked()
	fn := d.onChange
	d.mu.Unlock()

	if changed && fn != nil {
		fn(text)
	}
}

// Text returns the four positions, blanks as spaces
func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked()
}

// Writes returns how many position writes the firmware issued
func (d *Display) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// String renders the display as it would look on the panel, e.g. [1 2 _ _]
func (d *Display) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range d.Text() {
		if i > 0 {
			b.WriteByte(' ')
		}
		if r == ' ' {
			r = '_'
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}

func (d *Display) textLocked() string {
	var buf [core.DisplayPositions]byte
	for i, p := range d.positions {
		buf[i] = byte(p)
	}
	return string(buf[:])
}
