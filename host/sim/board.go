package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keylock/core"
	"keylock/host/logger"
)

// ServoPin is the PWM channel the simulated servo is wired to
const ServoPin core.PWMPin = 22

// DefaultPollInterval is how often Run services the lock between presses
const DefaultPollInterval = 5 * time.Millisecond

var ErrUnbound = errors.New("no button bound to digit")

// Board is one simulated lock. Press, Poll and Run must not be used from
// more than one goroutine at a time.
type Board struct {
	flags   *core.PortFlags
	display *Display
	pwm     *PWM
	servo   *core.Servo
	lock    *core.Lock
}

// NewBoard builds a lock from cfg. A nil clock uses a MonotonicClock; nil
// events are discarded.
func NewBoard(cfg core.Config, events core.EventSink, clock func() uint32) (*Board, error) {
	if events == nil {
		events = core.NopEvents{}
	}
	if clock == nil {
		clock = NewMonotonicClock().Ticks
	}

	b := &Board{
		flags:   &core.PortFlags{},
		display: NewDisplay(),
		pwm:     NewPWM(),
	}

	servo, err := core.NewServo(b.pwm, ServoPin, cfg.Servo)
	if err != nil {
		return nil, fmt.Errorf("servo: %w", err)
	}
	b.servo = servo

	lock, err := core.NewLock(cfg, core.Hardware{
		Ports:    b.flags,
		Display:  b.display,
		Actuator: b.servo,
		Clock:    clock,
	}, events)
	if err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	b.lock = lock
	return b, nil
}

// Press raises the flag of every digit's button, then runs one poll, so
// all digits of one call count as pressed at the same instant.
// Returns the number of key events the lock consumed.
func (b *Board) Press(digits ...core.Digit) (int, error) {
	table := b.lock.Bindings()
	bindings := make([]core.ButtonBinding, 0, len(digits))
	for _, d := range digits {
		bnd, ok := table.Find(d)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnbound, rune(d))
		}
		bindings = append(bindings, bnd)
	}

	for _, bnd := range bindings {
		b.flags.Raise(bnd.Group, bnd.Pin)
	}
	return b.lock.Poll(), nil
}

// Raise sets one pending flag without polling, like a stray interrupt
func (b *Board) Raise(g core.PortGroup, pin uint8) {
	b.flags.Raise(g, pin)
}

// Poll runs one main loop iteration
func (b *Board) Poll() int {
	return b.lock.Poll()
}

// Run is the main loop: batches from presses are entered as they arrive
// and the lock is polled every interval so the relock fires on time.
// When presses is closed Run keeps polling until no relock is pending.
func (b *Board) Run(ctx context.Context, presses <-chan []core.Digit, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-presses:
			if !ok {
				presses = nil
				if !b.pending() {
					return nil
				}
				continue
			}
			if _, err := b.Press(batch...); err != nil {
				logger.WarnKV(ctx, "press ignored", "error", err)
			}
		case <-ticker.C:
			b.lock.Poll()
			if presses == nil && !b.pending() {
				return nil
			}
		}
	}
}

func (b *Board) pending() bool {
	_, ok := b.lock.NextDeadline()
	return ok
}

// Status snapshots the lock
func (b *Board) Status() core.Status {
	return b.lock.Status()
}

// Lock returns the firmware lock the board runs
func (b *Board) Lock() *core.Lock {
	return b.lock
}

// Display returns the latched display
func (b *Board) Display() *Display {
	return b.display
}

// Angle returns the last commanded servo angle
func (b *Board) Angle() uint8 {
	return b.servo.Angle()
}

// PulseUS returns the servo pulse width currently output
func (b *Board) PulseUS() uint32 {
	duty, _ := b.pwm.Duty(ServoPin)
	return core.TimerToUS(uint32(duty))
}

// PWM exposes the software PWM for observers
func (b *Board) PWM() *PWM {
	return b.pwm
}
