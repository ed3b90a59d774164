// Package sim runs the lock firmware on a workstation. Key presses raise
// the same port flags the keypad interrupts would, the display latches into
// memory, and the servo is a software PWM that records its pulse width.
package sim
