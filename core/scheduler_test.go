package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func recordTimer(wake uint32, name string, log *[]string) *Timer {
	return &Timer{
		WakeTime: wake,
		Handler: func(*Timer) uint8 {
			*log = append(*log, name)
			return SF_DONE
		},
	}
}

func TestSchedulerOrder(t *testing.T) {
	var s Scheduler
	var log []string
	s.Schedule(recordTimer(300, "c", &log))
	s.Schedule(recordTimer(100, "a", &log))
	s.Schedule(recordTimer(200, "b1", &log))
	s.Schedule(recordTimer(200, "b2", &log))

	wake, ok := s.NextWake()
	require.True(t, ok)
	require.Equal(t, uint32(100), wake)

	require.Equal(t, 3, s.Dispatch(200))
	require.Equal(t, []string{"a", "b1", "b2"}, log)
	require.Equal(t, 1, s.Pending())

	require.Equal(t, 1, s.Dispatch(1000))
	_, ok = s.NextWake()
	require.False(t, ok)
}

func TestSchedulerAcrossWrap(t *testing.T) {
	var s Scheduler
	var log []string
	s.Schedule(recordTimer(0x00000010, "after", &log))
	s.Schedule(recordTimer(0xFFFFFFF0, "before", &log))

	require.Zero(t, s.Dispatch(0xFFFFFFE0))
	require.Equal(t, 1, s.Dispatch(0xFFFFFFF8))
	require.Equal(t, 1, s.Dispatch(0x00000020))
	require.Equal(t, []string{"before", "after"}, log)
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	runs := 0
	tm := &Timer{WakeTime: 10}
	tm.Handler = func(t *Timer) uint8 {
		runs++
		if runs == 3 {
			return SF_DONE
		}
		t.WakeTime += 10
		return SF_RESCHEDULE
	}
	s.Schedule(tm)

	s.Dispatch(10)
	s.Dispatch(20)
	s.Dispatch(30)
	s.Dispatch(40)
	require.Equal(t, 3, runs)
	require.Zero(t, s.Pending())
}

func TestSchedulerCancelAndMove(t *testing.T) {
	var s Scheduler
	var log []string
	a := recordTimer(50, "a", &log)
	s.Schedule(a)
	s.Schedule(recordTimer(60, "b", &log))

	a.WakeTime = 70
	s.Schedule(a) // moves, does not duplicate
	require.Equal(t, 2, s.Pending())

	require.True(t, s.Cancel(a))
	require.False(t, s.Cancel(a))
	s.Dispatch(100)
	require.Equal(t, []string{"b"}, log)
}

func TestTimerConversions(t *testing.T) {
	require.Equal(t, uint32(3000000), TimerFromUS(DefaultHoldUS))
	require.Equal(t, uint32(500), TimerToUS(500))
	require.Equal(t, uint32(1500), TimerFromDuration(1500000)) // 1.5 ms
	require.Equal(t, uint32(0), TimerFromDuration(-1))
	require.Equal(t, uint32(1<<31-1), TimerFromDuration(1<<62))
}
