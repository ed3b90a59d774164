//go:build rp2040

package main

import (
	"machine"

	"keylock/core"
)

// initKeypad configures every button with a pull-up and a falling edge
// interrupt. The handler only latches a pending flag; the main loop does the
// rest.
func initKeypad(flags *core.PortFlags) error {
	for _, p := range keypadPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		err := p.SetInterrupt(machine.PinFalling, func(pin machine.Pin) {
			flags.Raise(portOf(pin))
		})
		if err != nil {
			return err
		}
	}
	return nil
}
