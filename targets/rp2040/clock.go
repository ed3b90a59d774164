//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"keylock/core"
)

// RP2040 timer peripheral, a free running 64-bit microsecond counter.
// Only the low half is read; core.SetTime counts the wraps.
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime feeds the hardware counter to the core clock
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
