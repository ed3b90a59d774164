//go:build !tinygo

package core

// State mirrors runtime/interrupt.State on the host
type State uintptr

// disableInterrupts has nothing to mask on the host; tests drive the core
// from a single goroutine.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is the host counterpart of disableInterrupts
func restoreInterrupts(State) {}
