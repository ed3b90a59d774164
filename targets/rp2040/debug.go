//go:build rp2040

package main

import (
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"keylock/core"
)

// initDebugUART routes core debug output to UART0 on GPIO0 (TX) and GPIO1
// (RX) at 115200 baud. USB stays reserved for the host link.
func initDebugUART() {
	uart := uartx.UART0
	err := uart.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		_, _ = uart.Write([]byte(s))
		_, _ = uart.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("[BOOT] keylock " + core.FirmwareVersion)
}
