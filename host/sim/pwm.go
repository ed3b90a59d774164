package sim

import (
	"errors"
	"sync"

	"keylock/core"
)

var ErrPWMNotConfigured = errors.New("pwm pin not configured")

type pwmChannel struct {
	cycle uint32
	duty  core.PWMValue
}

// PWM is a software core.PWMDriver that records what the firmware asked for
type PWM struct {
	mu       sync.Mutex
	channels map[core.PWMPin]*pwmChannel
	onDuty   func(pin core.PWMPin, value core.PWMValue)
}

// NewPWM returns a driver with no configured pins
func NewPWM() *PWM {
	return &PWM{channels: make(map[core.PWMPin]*pwmChannel)}
}

// OnDuty registers fn to observe every duty change
func (p *PWM) OnDuty(fn func(pin core.PWMPin, value core.PWMValue)) {
	p.mu.Lock()
	p.onDuty = fn
	p.mu.Unlock()
}

func (p *PWM) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[pin] = &pwmChannel{cycle: cycleTicks}
	return cycleTicks, nil
}

func (p *PWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	p.mu.Lock()
	ch, ok := p.channels[pin]
	if !ok {
		p.mu.Unlock()
		return ErrPWMNotConfigured
	}
	if uint32(value) > ch.cycle {
		value = core.PWMValue(ch.cycle)
	}
	ch.duty = value
	fn := p.onDuty
	p.mu.Unlock()

	if fn != nil {
		fn(pin, value)
	}
	return nil
}

func (p *PWM) DisablePWM(pin core.PWMPin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.channels[pin]; !ok {
		return ErrPWMNotConfigured
	}
	delete(p.channels, pin)
	return nil
}

// Duty returns the high time of pin in timer ticks
func (p *PWM) Duty(pin core.PWMPin) (core.PWMValue, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.channels[pin]
	if !ok {
		return 0, false
	}
	return ch.duty, true
}
