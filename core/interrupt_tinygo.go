//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks pin IRQs while the scheduler list is edited and
// returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the state returned by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
