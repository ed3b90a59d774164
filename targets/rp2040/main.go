//go:build rp2040

package main

import (
	"time"

	"keylock/core"
	"keylock/protocol"
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	usbErrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	InitUSB()
	initDebugUART()
	UpdateSystemTime()

	cfg := core.DefaultConfig()
	cfg.Bindings = keypadBindings()

	core.SetGPIODriver(NewRPGPIODriver())
	core.SetPWMDriver(NewServoPWM())
	gpio := core.MustGPIO()

	var latch core.Latch
	latch, err := NewPIOLatch(strobePin, cfg.StrobeWidthUS)
	if err != nil {
		core.DebugPrintln("[BOOT] PIO strobe unavailable, using GPIO: " + err.Error())
		latch, err = core.NewPinLatch(gpio, core.GPIOPin(strobePin), time.Duration(cfg.StrobeWidthUS)*time.Microsecond)
		if err != nil {
			halt("strobe", err)
		}
	}
	display, err := core.NewMuxDisplay(gpio, displayPins, latch)
	if err != nil {
		halt("display", err)
	}
	servo, err := core.NewServo(core.MustPWM(), core.PWMPin(servoPin), cfg.Servo)
	if err != nil {
		halt("servo", err)
	}

	link := core.NewLink(cfg, "rp2040")
	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, link.Handle)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// The host waits for the ACK before it reads responses
	transport.SetFlushCallback(writeUSB)
	link.SetSender(transport)

	flags := &core.PortFlags{}
	lock, err := core.NewLock(cfg, core.Hardware{
		Ports:    flags,
		Display:  display,
		Actuator: servo,
	}, link)
	if err != nil {
		halt("lock", err)
	}
	link.Attach(lock)

	if err := initKeypad(flags); err != nil {
		halt("keypad", err)
	}
	go usbReaderLoop()

	for {
		UpdateSystemTime()

		if inputBuffer.Available() > 0 {
			in := protocol.NewSliceInputBuffer(inputBuffer.Data())
			before := in.Available()
			transport.Receive(in)
			inputBuffer.Pop(before - in.Available())
		}

		lock.Poll()
		writeUSB()

		time.Sleep(10 * time.Microsecond)
	}
}

// halt reports a boot failure and parks the CPU with the lock closed
func halt(stage string, err error) {
	core.DebugPrintln("[BOOT] " + stage + " failed: " + err.Error())
	core.DumpTraceRing()
	for {
		time.Sleep(time.Second)
	}
}

// usbReaderLoop moves bytes from the CDC endpoint into inputBuffer
func usbReaderLoop() {
	for {
		if USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				usbErrors++
				time.Sleep(time.Millisecond)
				continue
			}
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
			}
			if inputBuffer.Write([]byte{b}) == 0 {
				usbErrors++
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB flushes outputBuffer. After repeated failures the host is assumed
// gone and pending output is discarded.
func writeUSB() {
	pending := outputBuffer.Result()
	for written := 0; written < len(pending); {
		n, err := USBWriteBytes(pending[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
