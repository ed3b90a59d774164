package core

import "errors"

// DefaultHoldUS is how long the lock stays open after a match
const DefaultHoldUS = 3000000

var ErrInvalidHold = errors.New("unlock hold must be greater than zero")

// Config is everything that differs between two keypad lock builds
type Config struct {
	Passcode      Passcode
	Bindings      []ButtonBinding
	HoldTicks     uint32
	Servo         ServoConfig
	StrobeWidthUS uint32
}

// DefaultConfig returns the reference build: passcode 1234, 3 s hold
func DefaultConfig() Config {
	return Config{
		Passcode:      Passcode{'1', '2', '3', '4'},
		Bindings:      DefaultBindings(),
		HoldTicks:     TimerFromUS(DefaultHoldUS),
		Servo:         DefaultServoConfig(),
		StrobeWidthUS: DefaultStrobeWidthUS,
	}
}

// Validate checks every field; the first problem found is returned
func (c Config) Validate() error {
	for _, d := range c.Passcode {
		if !d.Valid() {
			return ErrInvalidPasscode
		}
	}
	if c.HoldTicks == 0 || c.HoldTicks > 1<<31-1 {
		return ErrInvalidHold
	}
	if _, err := NewBindingTable(c.Bindings); err != nil {
		return err
	}
	return c.Servo.Validate()
}
