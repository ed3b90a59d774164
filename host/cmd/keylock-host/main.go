// Command keylock-host inspects a keypad lock over its USB serial link.
package main

import "keylock/host/cmd/keylock-host/cmd"

func main() {
	cmd.Execute()
}
