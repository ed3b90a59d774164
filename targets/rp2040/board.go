//go:build rp2040

package main

import (
	"machine"

	"keylock/core"
)

// Keypad wiring: keypadPins[d] is the button for digit d, active low
var keypadPins = [10]machine.Pin{
	machine.GPIO2, machine.GPIO3, machine.GPIO4, machine.GPIO5, machine.GPIO6,
	machine.GPIO7, machine.GPIO8, machine.GPIO9, machine.GPIO10, machine.GPIO11,
}

// Display: seven segment lines a..g, two position select lines, latch strobe
var displayPins = core.MuxPins{
	Segments: [7]core.GPIOPin{12, 13, 14, 15, 16, 17, 18},
	Select:   [2]core.GPIOPin{19, 20},
}

const (
	strobePin = machine.GPIO21
	servoPin  = machine.GPIO22
)

// portOf splits a GPIO number into the (group, pin) address used by the
// pending flags: eight GPIOs per group.
func portOf(p machine.Pin) (core.PortGroup, uint8) {
	return core.PortGroup(p >> 3), uint8(p & 7)
}

// keypadBindings derives the binding table from keypadPins
func keypadBindings() []core.ButtonBinding {
	out := make([]core.ButtonBinding, 0, len(keypadPins))
	for d, p := range keypadPins {
		g, pin := portOf(p)
		out = append(out, core.ButtonBinding{Group: g, Pin: pin, Digit: core.Digit('0' + d)})
	}
	return out
}
