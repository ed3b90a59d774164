package core

import "time"

// TimerFreq is the system tick rate. The RP2040 timer counts microseconds.
const TimerFreq = 1000000

var uptimeHigh uint32 // incremented each time the 32-bit tick counter wraps

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (called by the target main loop)
func SetTime(ticks uint32) {
	if ticks < getSystemTicks() {
		uptimeHigh++
	}
	setSystemTicks(ticks)
}

// GetUptime returns 64-bit uptime in timer ticks
func GetUptime() uint64 {
	return uint64(uptimeHigh)<<32 | uint64(GetTime())
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerFromDuration converts a duration to timer ticks, saturating at the
// largest delay the wrap-safe comparison can express
func TimerFromDuration(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	us := d.Microseconds()
	if us > 1<<31-1 {
		us = 1<<31 - 1
	}
	return TimerFromUS(uint32(us))
}
