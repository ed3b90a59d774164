package core

import "errors"

// Actuator angles in degrees
const (
	AngleClosed = 0
	AngleOpen   = 180
	MaxAngle    = 180
)

var (
	ErrInvalidServo     = errors.New("servo pulse range must satisfy 0 < min < max <= period")
	ErrUnlockInProgress = errors.New("unlock cycle already running")
)

// LockState is the state of the lock mechanism
type LockState uint8

const (
	Locked LockState = iota
	Unlocked
)

func (s LockState) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Actuator moves the lock mechanism to an angle in [0, MaxAngle]
type Actuator interface {
	SetAngle(angle uint8) error
}

// ServoConfig holds the pulse calibration of the lock servo
type ServoConfig struct {
	PeriodUS   uint32 // PWM period
	MinPulseUS uint32 // pulse width at 0 degrees
	MaxPulseUS uint32 // pulse width at MaxAngle degrees
}

// DefaultServoConfig returns the calibration of the reference servo
func DefaultServoConfig() ServoConfig {
	return ServoConfig{
		PeriodUS:   20000,
		MinPulseUS: 320,
		MaxPulseUS: 2620,
	}
}

// Validate checks the pulse range
func (c ServoConfig) Validate() error {
	if c.MinPulseUS == 0 || c.MinPulseUS >= c.MaxPulseUS || c.MaxPulseUS > c.PeriodUS {
		return ErrInvalidServo
	}
	return nil
}

// PulseForAngle maps angle linearly onto the calibrated pulse range.
// Angles above MaxAngle are clamped.
func (c ServoConfig) PulseForAngle(angle uint8) uint32 {
	if angle > MaxAngle {
		angle = MaxAngle
	}
	return c.MinPulseUS + uint32(angle)*(c.MaxPulseUS-c.MinPulseUS)/MaxAngle
}

// Servo implements Actuator on a hardware PWM output
type Servo struct {
	pwm   PWMDriver
	pin   PWMPin
	cfg   ServoConfig
	angle uint8
}

// NewServo configures pin for the servo period
func NewServo(pwm PWMDriver, pin PWMPin, cfg ServoConfig) (*Servo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := pwm.ConfigureHardwarePWM(pin, TimerFromUS(cfg.PeriodUS)); err != nil {
		return nil, err
	}
	return &Servo{pwm: pwm, pin: pin, cfg: cfg}, nil
}

// SetAngle implements Actuator
func (s *Servo) SetAngle(angle uint8) error {
	if angle > MaxAngle {
		angle = MaxAngle
	}
	s.angle = angle
	pulse := TimerFromUS(s.cfg.PulseForAngle(angle))
	return s.pwm.SetDutyCycle(s.pin, PWMValue(pulse))
}

// Angle returns the last commanded angle
func (s *Servo) Angle() uint8 {
	return s.angle
}

// Sequencer runs the unlock cycle: open, hold, close. The hold is a
// scheduled timer so the caller never blocks.
type Sequencer struct {
	act   Actuator
	sched *Scheduler
	hold  uint32

	state    LockState
	timer    Timer
	onLocked func()
	cycles   uint32
}

// NewSequencer creates a sequencer holding the lock open for holdTicks
func NewSequencer(act Actuator, sched *Scheduler, holdTicks uint32) *Sequencer {
	s := &Sequencer{act: act, sched: sched, hold: holdTicks}
	s.timer.Handler = s.relock
	return s
}

// OnLocked registers fn to run after the actuator is back at AngleClosed
func (s *Sequencer) OnLocked(fn func()) {
	s.onLocked = fn
}

// Park commands the closed position without touching the cycle state
func (s *Sequencer) Park() {
	s.move(AngleClosed)
}

// StartUnlock opens the lock and schedules the relock at now + hold
func (s *Sequencer) StartUnlock(now uint32) error {
	if s.state == Unlocked {
		return ErrUnlockInProgress
	}
	s.move(AngleOpen)
	s.state = Unlocked
	s.cycles++

	s.timer.WakeTime = now + s.hold
	s.sched.Schedule(&s.timer)
	return nil
}

// State returns the lock state
func (s *Sequencer) State() LockState {
	return s.state
}

// Cycles returns the number of unlock cycles started
func (s *Sequencer) Cycles() uint32 {
	return s.cycles
}

// HoldTicks returns the configured hold time
func (s *Sequencer) HoldTicks() uint32 {
	return s.hold
}

func (s *Sequencer) relock(*Timer) uint8 {
	s.move(AngleClosed)
	s.state = Locked
	if s.onLocked != nil {
		s.onLocked()
	}
	return SF_DONE
}

// move issues the write; a failing actuator is reported but never retried
func (s *Sequencer) move(angle uint8) {
	if err := s.act.SetAngle(angle); err != nil {
		DebugPrintln("[LOCK] actuator write failed: " + err.Error())
	}
}
