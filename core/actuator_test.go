package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServoPulseForAngle(t *testing.T) {
	cfg := DefaultServoConfig()
	require.Equal(t, uint32(320), cfg.PulseForAngle(AngleClosed))
	require.Equal(t, uint32(1470), cfg.PulseForAngle(90))
	require.Equal(t, uint32(2620), cfg.PulseForAngle(AngleOpen))
	require.Equal(t, uint32(2620), cfg.PulseForAngle(250))
}

func TestServoConfigValidate(t *testing.T) {
	require.NoError(t, DefaultServoConfig().Validate())

	bad := []ServoConfig{
		{PeriodUS: 20000, MinPulseUS: 0, MaxPulseUS: 2000},
		{PeriodUS: 20000, MinPulseUS: 2000, MaxPulseUS: 1000},
		{PeriodUS: 2000, MinPulseUS: 500, MaxPulseUS: 2500},
	}
	for _, c := range bad {
		require.ErrorIs(t, c.Validate(), ErrInvalidServo, "%+v", c)
	}
}

func TestServoDrivesPWM(t *testing.T) {
	pwm := newFakePWM()
	s, err := NewServo(pwm, 15, DefaultServoConfig())
	require.NoError(t, err)
	require.Equal(t, uint32(20000), pwm.cycle[15])

	require.NoError(t, s.SetAngle(AngleOpen))
	require.Equal(t, PWMValue(2620), pwm.duty[15])
	require.Equal(t, uint8(AngleOpen), s.Angle())

	require.NoError(t, s.SetAngle(200))
	require.Equal(t, uint8(MaxAngle), s.Angle())
}

func TestSequencerCycle(t *testing.T) {
	var sched Scheduler
	act := &fakeActuator{}
	seq := NewSequencer(act, &sched, 3000)
	relocks := 0
	seq.OnLocked(func() { relocks++ })

	require.NoError(t, seq.StartUnlock(100))
	require.Equal(t, Unlocked, seq.State())
	require.Equal(t, []uint8{AngleOpen}, act.angles)

	require.ErrorIs(t, seq.StartUnlock(200), ErrUnlockInProgress)

	sched.Dispatch(3099)
	require.Equal(t, Unlocked, seq.State(), "hold not over yet")

	sched.Dispatch(3100)
	require.Equal(t, Locked, seq.State())
	require.Equal(t, []uint8{AngleOpen, AngleClosed}, act.angles)
	require.Equal(t, 1, relocks)
	require.Equal(t, uint32(1), seq.Cycles())
}

func TestSequencerToleratesActuatorErrors(t *testing.T) {
	var sched Scheduler
	act := &fakeActuator{err: errors.New("stalled")}
	seq := NewSequencer(act, &sched, 10)

	require.NoError(t, seq.StartUnlock(0))
	sched.Dispatch(10)
	require.Equal(t, Locked, seq.State())
	require.Len(t, act.angles, 2, "no retries")
}

func TestDriverRegistration(t *testing.T) {
	SetGPIODriver(nil)
	SetPWMDriver(nil)
	require.Panics(t, func() { MustGPIO() })
	require.Panics(t, func() { MustPWM() })

	gpio := newFakeGPIO()
	pwm := newFakePWM()
	SetGPIODriver(gpio)
	SetPWMDriver(pwm)
	t.Cleanup(func() {
		SetGPIODriver(nil)
		SetPWMDriver(nil)
	})

	require.Same(t, gpio, MustGPIO())
	require.Same(t, pwm, MustPWM())
}
