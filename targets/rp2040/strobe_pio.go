//go:build rp2040

package main

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Strobe program, clocked at 1 MHz so one loop iteration is 1 us:
//
//	pull block      ; width in us
//	out x, 32
//	set pins, 0     ; strobe low
//	jmp x--, 3
//	set pins, 1     ; strobe high
//	push block      ; tell the CPU the pulse is over
func buildStrobeProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),
		asm.Out(rp2pio.OutDestX, 32).Encode(),
		asm.Set(rp2pio.SetDestPins, 0).Encode(),
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),
		asm.Set(rp2pio.SetDestPins, 1).Encode(),
		asm.Push(false, true).Encode(),
	}
}

const strobeOrigin = 0

// PIOLatch implements core.Latch with a hardware-timed low pulse, so the
// minimum width holds even if the CPU is interrupted mid-pulse.
type PIOLatch struct {
	sm    rp2pio.StateMachine
	width uint32
}

// NewPIOLatch loads the strobe program on PIO0 state machine 0
func NewPIOLatch(pin machine.Pin, widthUS uint32) (*PIOLatch, error) {
	pio := rp2pio.PIO0
	sm := pio.StateMachine(0)
	sm.TryClaim()

	program := buildStrobeProgram()
	offset, err := pio.AddProgram(program, strobeOrigin)
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(uint16(machine.CPUFrequency()/1000000), 0)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(pin, 1, true)
	sm.SetPinsConsecutive(pin, 1, true)
	sm.SetEnabled(true)

	if widthUS == 0 {
		widthUS = 1
	}
	return &PIOLatch{sm: sm, width: widthUS}, nil
}

// Pulse implements core.Latch and returns once the strobe is high again
func (l *PIOLatch) Pulse() {
	for l.sm.IsTxFIFOFull() {
	}
	l.sm.TxPut(l.width - 1)
	for l.sm.IsRxFIFOEmpty() {
	}
	_ = l.sm.RxGet()
}
