//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/servo"

	"keylock/core"
)

var errServoNotConfigured = errors.New("servo pin not configured")

// ServoPWM implements core.PWMDriver on tinygo drivers servo outputs. The
// servo driver fixes the period at 20 ms; duty values are timer ticks.
type ServoPWM struct {
	servos map[core.PWMPin]servo.Servo
}

func NewServoPWM() *ServoPWM {
	return &ServoPWM{servos: make(map[core.PWMPin]servo.Servo)}
}

// ConfigureHardwarePWM attaches a servo output to pin
func (d *ServoPWM) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	s, err := servo.New(pwmSlice(pin), machine.Pin(pin))
	if err != nil {
		return 0, err
	}
	d.servos[pin] = s
	return core.TimerFromUS(20000), nil
}

// SetDutyCycle sets the pulse width
func (d *ServoPWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	s, ok := d.servos[pin]
	if !ok {
		return errServoNotConfigured
	}
	s.SetMicroseconds(int16(core.TimerToUS(uint32(value))))
	return nil
}

// DisablePWM stops the pulses; an unpowered servo holds no position
func (d *ServoPWM) DisablePWM(pin core.PWMPin) error {
	s, ok := d.servos[pin]
	if !ok {
		return nil
	}
	s.SetMicroseconds(0)
	delete(d.servos, pin)
	return nil
}

// pwmSlice returns the slice driving GPIO n: slice (n>>1)&7
func pwmSlice(pin core.PWMPin) servo.PWM {
	switch (pin >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
