//go:build !tinygo

package core

// Host builds keep the tick counter in a plain variable; only the test
// goroutine touches it.
var systemTicks uint32

func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
