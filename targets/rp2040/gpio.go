//go:build rp2040

package main

import (
	"machine"

	"keylock/core"
)

// RPGPIODriver implements core.GPIODriver; GPIO numbers map 1:1 to pins
type RPGPIODriver struct {
	configured map[core.GPIOPin]machine.Pin
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{configured: make(map[core.GPIOPin]machine.Pin)}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if _, ok := d.configured[pin]; ok {
		return nil
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: mode})
	d.configured[pin] = p
	return nil
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin drives pin, configuring it as an output on first use
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configured[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.configured[pin]
	}
	p.Set(value)
	return nil
}

// GetPin reads pin; an unconfigured pin reads low
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := d.configured[pin]
	if !ok {
		return false, nil
	}
	return p.Get(), nil
}
